package blocksync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/services/blocksync/availability"
	"github.com/bsv-blockchain/blocksync/services/blocksync/blockcache"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/stores/blockentry"
	"github.com/bsv-blockchain/blocksync/stores/ledger"
	"github.com/bsv-blockchain/blocksync/ulogger"
)

const stopTimeout = 5 * time.Second

// Server wires the store, tracker, caches and processor of one node around its ledger and runs
// the processor as a service.
type Server struct {
	logger   ulogger.Logger
	settings *settings.Settings
	ledger   ledger.Ledger
	genesis  *model.Block
	options  []ProcessorOption

	store          *blockentry.MemoryStore
	tracker        *availability.Tracker
	blockCache     *blockcache.BlockCache
	blockSync      *BlockSync
	responder      *Responder
	statusResolver *StatusResolver
	processor      *MessageProcessor
}

func NewServer(logger ulogger.Logger, tSettings *settings.Settings, l ledger.Ledger, genesis *model.Block, options ...ProcessorOption) *Server {
	return &Server{
		logger:   logger,
		settings: tSettings,
		ledger:   l,
		genesis:  genesis,
		options:  options,
	}
}

func (s *Server) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	if s.processor == nil || !s.processor.IsRunning() {
		return http.StatusServiceUnavailable, "processor not running", errors.NewServiceNotStartedError("[BlockSync] processor not running")
	}

	if _, err := s.ledger.GetBestBlock(ctx); err != nil {
		return http.StatusServiceUnavailable, "ledger unavailable", errors.NewServiceUnavailableError("[BlockSync] ledger unavailable", err)
	}

	return http.StatusOK, fmt.Sprintf("OK, %d orphans, %d queued", s.store.Size(), s.processor.QueueLength()), nil
}

func (s *Server) Init(_ context.Context) error {
	tSettings := s.settings.BlockSync

	if err := tSettings.Validate(); err != nil {
		return err
	}

	tracker, err := availability.NewTracker(tSettings.TrackerMaxPeers, tSettings.TrackerMaxBlocks)
	if err != nil {
		return err
	}

	s.store = blockentry.New(uint32(max(tSettings.TrackerMaxBlocks, 16)))
	s.tracker = tracker
	s.blockCache = blockcache.New(tSettings.BlockCacheSize)

	s.blockSync, err = New(s.logger, tSettings, s.ledger, s.store, s.tracker, s.blockCache)
	if err != nil {
		return err
	}

	s.responder = NewResponder(s.logger, tSettings, s.ledger, s.store, s.tracker, s.blockCache)
	s.statusResolver = NewStatusResolver(s.logger, s.ledger, s.genesis)
	s.processor = NewMessageProcessor(s.logger, tSettings, s.blockSync, s.responder, s.statusResolver, s.options...)

	return nil
}

// Start runs the processor until ctx is done.
func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	if s.processor == nil {
		return errors.NewServiceNotStartedError("[BlockSync] Start called before Init")
	}

	if err := s.processor.Start(ctx); err != nil {
		return err
	}

	close(readyCh)

	<-ctx.Done()

	return ctx.Err()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.processor == nil {
		return nil
	}

	timeout := stopTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if !s.processor.StopAndWait(timeout) {
		return errors.NewServiceError("[BlockSync] processor did not stop within %s", timeout)
	}

	return nil
}

func (s *Server) Processor() *MessageProcessor {
	return s.processor
}

func (s *Server) BlockSync() *BlockSync {
	return s.blockSync
}

func (s *Server) StatusResolver() *StatusResolver {
	return s.statusResolver
}

func (s *Server) Ledger() ledger.Ledger {
	return s.ledger
}
