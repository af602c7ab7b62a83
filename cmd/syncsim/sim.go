package main

import (
	"context"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/blocksync/util/servicemanager"
	"github.com/bsv-blockchain/blocksync/util/test"
	"golang.org/x/sync/errgroup"
)

const pollInterval = 50 * time.Millisecond

type simConfig struct {
	blocks    int
	forkDepth int
	timeout   time.Duration
}

type simResult struct {
	best        *model.Block
	elapsed     time.Duration
	connected   int64
	orphansLeft int
	dropped     int64
	health      string
}

// simulate builds blocks on node A and lets node B catch up through block sync. With a fork depth
// B first builds its own lighter branch, forkDepth-1 blocks long, on the last shared block and
// must reorganise onto A's heavier branch. Without one B starts from genesis.
func simulate(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, cfg simConfig) (*simResult, error) {
	if cfg.blocks <= 0 {
		return nil, errors.NewInvalidArgumentError("blocks must be positive, got %d", cfg.blocks)
	}

	if cfg.forkDepth < 0 || cfg.forkDepth > cfg.blocks {
		return nil, errors.NewInvalidArgumentError("fork depth must be between 0 and %d, got %d", cfg.blocks, cfg.forkDepth)
	}

	genesis := test.Genesis()

	nodeA, err := newSimNode("nodeA", logger, tSettings, genesis)
	if err != nil {
		return nil, err
	}

	nodeB, err := newSimNode("nodeB", logger, tSettings, genesis)
	if err != nil {
		return nil, err
	}

	if err = seed(ctx, nodeA, nodeB, cfg); err != nil {
		return nil, err
	}

	bestB, err := nodeB.bestBlock(ctx)
	if err != nil {
		return nil, err
	}

	if gap := uint64(cfg.blocks) - bestB.Number(); gap > tSettings.BlockSync.AdvanceLimit() {
		return nil, errors.NewInvalidArgumentError("nodeB would be %d blocks behind, more than the advance limit %d", gap, tSettings.BlockSync.AdvanceLimit())
	}

	connectNodes(nodeA, nodeB)

	sm := servicemanager.NewServiceManager(ctx, logger)

	for _, node := range []*simNode{nodeA, nodeB} {
		if err = sm.AddService(node.name, node.server); err != nil {
			sm.Shutdown()
			_ = sm.Wait()

			return nil, err
		}
	}

	readyCtx, readyCancel := context.WithTimeout(ctx, cfg.timeout)
	defer readyCancel()

	if err = sm.WaitForServiceToBeReady(readyCtx); err != nil {
		sm.Shutdown()
		_ = sm.Wait()

		return nil, err
	}

	start := time.Now()
	result := &simResult{}

	g, gCtx := errgroup.WithContext(sm.Ctx)

	g.Go(func() error {
		return announce(gCtx, nodeA, nodeB)
	})

	g.Go(func() error {
		best, err := waitForConvergence(gCtx, nodeA, nodeB, cfg.timeout)
		if err != nil {
			return err
		}

		result.best = best
		result.elapsed = time.Since(start)

		return nil
	})

	err = g.Wait()

	_, result.health, _ = sm.HealthHandler(ctx, false)

	sm.Shutdown()

	if waitErr := sm.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}

	result.connected = nodeB.connected.Load()
	result.dropped = nodeA.dropped.Load() + nodeB.dropped.Load()
	result.orphansLeft = nodeB.server.BlockSync().Store().Size()

	return result, err
}

func seed(ctx context.Context, nodeA, nodeB *simNode, cfg simConfig) error {
	prefix := test.GenerateChain(nodeA.genesis, cfg.blocks-cfg.forkDepth)

	forkPoint := nodeA.genesis
	if len(prefix) > 0 {
		forkPoint = prefix[len(prefix)-1]
	}

	if err := connectAll(ctx, nodeA, prefix); err != nil {
		return err
	}

	if err := connectAll(ctx, nodeA, test.GenerateChain(forkPoint, cfg.forkDepth, test.WithDifficulty(2))); err != nil {
		return err
	}

	if cfg.forkDepth == 0 {
		return nil
	}

	if err := connectAll(ctx, nodeB, prefix); err != nil {
		return err
	}

	return connectAll(ctx, nodeB, test.GenerateChain(forkPoint, cfg.forkDepth-1))
}

func connectAll(ctx context.Context, node *simNode, blocks []*model.Block) error {
	for _, block := range blocks {
		result, err := node.ledger.TryToConnect(ctx, block)
		if err != nil {
			return err
		}

		if !result.IsSuccessful() {
			return errors.NewBlockInvalidError("[%s] could not seed block %d: %s", node.name, block.Number(), result)
		}
	}

	return nil
}

// announce sends each node's status to the other, as a handshake would.
func announce(ctx context.Context, nodes ...*simNode) error {
	for _, node := range nodes {
		status, err := node.server.StatusResolver().CurrentStatus(ctx)
		if err != nil {
			return err
		}

		node.logger.Infof("[%s] announcing %s", node.name, status)
		node.BroadcastStatus(ctx, status)
	}

	return nil
}

func waitForConvergence(ctx context.Context, nodeA, nodeB *simNode, timeout time.Duration) (*model.Block, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, errors.NewContextCanceledError("waiting for %s to converge", nodeB.name, ctx.Err())

		case <-deadline.C:
			bestB, _ := nodeB.bestBlock(ctx)
			return nil, errors.NewNetworkTimeoutError("%s did not converge within %s, at %s", nodeB.name, timeout, bestB)

		case <-ticker.C:
			bestA, err := nodeA.bestBlock(ctx)
			if err != nil {
				return nil, err
			}

			bestB, err := nodeB.bestBlock(ctx)
			if err != nil {
				return nil, err
			}

			if bestA.Hash().IsEqual(bestB.Hash()) {
				return bestB, nil
			}
		}
	}
}
