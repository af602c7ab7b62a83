// Package servicemanager starts a set of services in registration order and stops them in
// reverse order once any of them returns or the process is signalled.
package servicemanager

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"golang.org/x/sync/errgroup"
)

// Service is anything the manager can run. Start blocks until ctx is done or the service fails
// and closes readyCh once it is serving.
type Service interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Init(ctx context.Context) error
	Start(ctx context.Context, readyCh chan<- struct{}) error
	Stop(ctx context.Context) error
}

type serviceWrapper struct {
	name     string
	instance Service
	// started is closed right before Start is called, the next service waits for it
	started chan struct{}
	readyCh chan struct{}
}

type ServiceManager struct {
	Ctx context.Context

	logger       ulogger.Logger
	cancelFunc   context.CancelFunc
	g            *errgroup.Group
	startTimeout time.Duration
	stopTimeout  time.Duration

	mu       sync.Mutex
	services []*serviceWrapper
}

type Option func(*ServiceManager)

// WithStartTimeout bounds how long a service waits for the one registered before it to start.
func WithStartTimeout(d time.Duration) Option {
	return func(sm *ServiceManager) {
		sm.startTimeout = d
	}
}

// WithStopTimeout bounds each service's Stop call.
func WithStopTimeout(d time.Duration) Option {
	return func(sm *ServiceManager) {
		sm.stopTimeout = d
	}
}

func NewServiceManager(ctx context.Context, logger ulogger.Logger, options ...Option) *ServiceManager {
	ctx, cancelFunc := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(ctx)

	sm := &ServiceManager{
		Ctx:          gCtx,
		logger:       logger,
		cancelFunc:   cancelFunc,
		g:            g,
		startTimeout: 5 * time.Second,
		stopTimeout:  5 * time.Second,
	}

	for _, o := range options {
		o(sm)
	}

	go sm.cancelOnSignal()

	return sm
}

func (sm *ServiceManager) cancelOnSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		sm.logger.Infof("[ServiceManager] received %s, stopping services", sig)
		sm.cancelFunc()
	case <-sm.Ctx.Done():
	}
}

// AddService initialises service and starts it once the previously added service has started.
func (sm *ServiceManager) AddService(name string, service Service) error {
	sw := &serviceWrapper{
		name:     name,
		instance: service,
		started:  make(chan struct{}),
		readyCh:  make(chan struct{}),
	}

	sm.mu.Lock()

	var previous *serviceWrapper
	if n := len(sm.services); n > 0 {
		previous = sm.services[n-1]
	}

	sm.services = append(sm.services, sw)

	sm.mu.Unlock()

	sm.logger.Infof("[ServiceManager] initializing %s", name)

	if err := service.Init(sm.Ctx); err != nil {
		return errors.NewServiceError("failed to initialize service %s", name, err)
	}

	sm.g.Go(func() error {
		if previous != nil {
			if err := sm.waitForStart(sw, previous); err != nil {
				return err
			}
		}

		sm.logger.Infof("[ServiceManager] starting %s", name)
		close(sw.started)

		if err := service.Start(sm.Ctx, sw.readyCh); err != nil {
			if !errors.Is(err, context.Canceled) {
				sm.logger.Errorf("[ServiceManager] %s returned: %v", name, err)
			}

			return err
		}

		return nil
	})

	return nil
}

func (sm *ServiceManager) waitForStart(sw, previous *serviceWrapper) error {
	timer := time.NewTimer(sm.startTimeout)
	defer timer.Stop()

	select {
	case <-previous.started:
		return nil
	case <-sm.Ctx.Done():
		return sm.Ctx.Err()
	case <-timer.C:
		return errors.NewServiceError("%s timed out waiting for %s to start", sw.name, previous.name)
	}
}

func (sm *ServiceManager) snapshot() []*serviceWrapper {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return append([]*serviceWrapper(nil), sm.services...)
}

// WaitForServiceToBeReady blocks until every service closed its ready channel or ctx is done.
func (sm *ServiceManager) WaitForServiceToBeReady(ctx context.Context) error {
	for _, sw := range sm.snapshot() {
		select {
		case <-sw.readyCh:
			sm.logger.Debugf("[ServiceManager] %s is ready", sw.name)
		case <-ctx.Done():
			return errors.NewContextCanceledError("waiting for service %s to be ready", sw.name, ctx.Err())
		}
	}

	return nil
}

func (sm *ServiceManager) ServicesNotReady() []string {
	var notReady []string

	for _, sw := range sm.snapshot() {
		select {
		case <-sw.readyCh:
		default:
			notReady = append(notReady, sw.name)
		}
	}

	return notReady
}

// Shutdown cancels the context every service was started with.
func (sm *ServiceManager) Shutdown() {
	sm.cancelFunc()
}

// Wait blocks until every service returned, then stops them in reverse order. A shutdown through
// Shutdown or a signal is not reported as an error.
func (sm *ServiceManager) Wait() error {
	err := sm.g.Wait()

	// the group only cancels its context on failure, make sure the signal goroutine exits too
	sm.cancelFunc()

	services := sm.snapshot()

	for i := len(services) - 1; i >= 0; i-- {
		sw := services[i]

		stopCtx, stopCancel := context.WithTimeout(context.Background(), sm.stopTimeout)

		if stopErr := sw.instance.Stop(stopCtx); stopErr != nil {
			sm.logger.Warnf("[ServiceManager] failed to stop %s: %v", sw.name, stopErr)
		} else {
			sm.logger.Infof("[ServiceManager] stopped %s", sw.name)
		}

		stopCancel()
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

type serviceHealth struct {
	Service string `json:"service"`
	Status  int    `json:"status"`
	Details string `json:"details"`
	Error   string `json:"error,omitempty"`
}

type healthReport struct {
	Status   int             `json:"status"`
	Services []serviceHealth `json:"services"`
}

// HealthHandler returns 503 when any service reports unhealthy, with a JSON summary of all.
func (sm *ServiceManager) HealthHandler(ctx context.Context, checkLiveness bool) (int, string, error) {
	report := healthReport{Status: http.StatusOK}

	for _, sw := range sm.snapshot() {
		status, details, err := sw.instance.Health(ctx, checkLiveness)

		entry := serviceHealth{Service: sw.name, Status: status, Details: details}

		if err != nil {
			entry.Error = err.Error()
		}

		if err != nil || status != http.StatusOK {
			report.Status = http.StatusServiceUnavailable
		}

		report.Services = append(report.Services, entry)
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return http.StatusInternalServerError, "", errors.NewProcessingError("failed to encode health report", err)
	}

	return report.Status, string(body), nil
}
