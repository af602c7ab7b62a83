package ledger

import (
	"net/url"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/stores/ledger/memory"
	"github.com/bsv-blockchain/blocksync/ulogger"
)

func NewLedger(logger ulogger.Logger, ledgerURL *url.URL, genesis *model.Block) (Ledger, error) {
	if ledgerURL == nil {
		return nil, errors.NewConfigurationError("ledger url is not set")
	}

	switch ledgerURL.Scheme {
	case "memory":
		return memory.New(logger, genesis), nil
	}

	return nil, errors.NewConfigurationError("unknown ledger scheme: %s", ledgerURL.Scheme)
}
