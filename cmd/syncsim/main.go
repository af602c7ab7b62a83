// Package main runs two in-process nodes and lets one catch up with the other through block sync.
//
// Usage:
//
//	syncsim run --blocks 500 --fork-depth 10
//	syncsim settings
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "syncsim",
		Usage: "Simulate block sync between two in-process nodes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
				Value: "INFO",
			},
			&cli.StringFlag{
				Name:  "logger",
				Usage: "zerolog, gocore or file",
				Value: "zerolog",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Build a chain on nodeA and wait for nodeB to sync it",
				Action: run,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "blocks",
						Usage: "height of nodeA's best block",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "fork-depth",
						Usage: "number of blocks on nodeA's branch past the block shared with nodeB, 0 starts nodeB at genesis",
						Value: 0,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "how long nodeB gets to converge",
						Value: time.Minute,
					},
					&cli.DurationFlag{
						Name:  "status-interval",
						Usage: "interval between idle status broadcasts",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:   "settings",
				Usage:  "Print the block sync settings in effect",
				Action: printSettings,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) ulogger.Logger {
	return ulogger.New("syncsim",
		ulogger.WithLevel(c.String("log-level")),
		ulogger.WithLoggerType(c.String("logger")),
	)
}

func run(c *cli.Context) error {
	logger := newLogger(c)

	tSettings := settings.NewSettings()
	tSettings.BlockSync.StatusBroadcastInterval = c.Duration("status-interval")

	if err := tSettings.BlockSync.Validate(); err != nil {
		return err
	}

	cfg := simConfig{
		blocks:    c.Int("blocks"),
		forkDepth: c.Int("fork-depth"),
		timeout:   c.Duration("timeout"),
	}

	logger.Infof("[syncsim] nodeA at %d, fork depth %d", cfg.blocks, cfg.forkDepth)

	result, err := simulate(c.Context, logger, tSettings, cfg)
	if err != nil {
		if result != nil && result.health != "" {
			logger.Warnf("[syncsim] health at failure:\n%s", result.health)
		}

		return errors.NewProcessingError("simulation failed", err)
	}

	logger.Infof("[syncsim] nodeB converged on %s in %s, %d blocks connected, %d orphans left, %d messages dropped",
		result.best, result.elapsed, result.connected, result.orphansLeft, result.dropped)

	return nil
}

func printSettings(c *cli.Context) error {
	tSettings := settings.NewSettings()
	s := tSettings.BlockSync

	fmt.Printf("clientName               %s\n", tSettings.ClientName)
	fmt.Printf("logLevel                 %s\n", tSettings.LogLevel)
	fmt.Printf("chunkSize                %d\n", s.ChunkSize)
	fmt.Printf("maxSkeletonChunks        %d\n", s.MaxSkeletonChunks)
	fmt.Printf("advanceLimit             %d\n", s.AdvanceLimit())
	fmt.Printf("skeletonStep             %d\n", s.SkeletonStep)
	fmt.Printf("uncleGenerationLimit     %d\n", s.UncleGenerationLimit)
	fmt.Printf("blocksForPeers           %d\n", s.BlocksForPeers)
	fmt.Printf("trackerMaxPeers          %d\n", s.TrackerMaxPeers)
	fmt.Printf("trackerMaxBlocks         %d\n", s.TrackerMaxBlocks)
	fmt.Printf("blockCacheSize           %d\n", s.BlockCacheSize)
	fmt.Printf("releaseInterval          %d\n", s.ReleaseInterval)
	fmt.Printf("releaseRange             %d\n", s.ReleaseRange)
	fmt.Printf("pendingRequestTTL        %s\n", s.PendingRequestTTL)
	fmt.Printf("messageQueueMaxSize      %d\n", s.MessageQueueMaxSize)
	fmt.Printf("statusBroadcastInterval  %s\n", s.StatusBroadcastInterval)
	fmt.Printf("queueWarnThreshold       %s\n", s.QueueWarnThreshold)
	fmt.Printf("receivedBlocksCacheSize  %d\n", s.ReceivedBlocksCacheSize)
	fmt.Printf("receivedBlocksCacheTTL   %s\n", s.ReceivedBlocksCacheTTL)
	fmt.Printf("peerStatusCacheSize      %d\n", s.PeerStatusCacheSize)

	if err := s.Validate(); err != nil {
		return err
	}

	return nil
}
