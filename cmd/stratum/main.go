// Package main provides the stratum CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vellumlabs/stratum/pkg/config"
	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/logger"
	"github.com/vellumlabs/stratum/pkg/maintain"
	"github.com/vellumlabs/stratum/pkg/snapshot"
	"github.com/vellumlabs/stratum/pkg/storage"
	"github.com/vellumlabs/stratum/pkg/stratum"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "stratum",
		Short: "Stratum - tiered in-memory graph store with rollback",
		Long: `Stratum is a tiered, immutable, indexed in-memory graph store.

Features:
  • Three storage tiers (runtime/store/cold) with per-tier indexes
  • Label, property, numeric-range, and relationship indexes
  • Append-only diff log with multi-step rollback
  • Access-count, age, and size-limit eviction policies
  • Checksummed on-disk snapshots`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Stratum v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print per-tier entity counts of the stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(configPath)
		},
	})

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a small sample graph and exercise queries and rollback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(configPath)
		},
	}
	rootCmd.AddCommand(demoCmd)

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the stored snapshot as gzip-compressed JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath, args[0])
		},
	}
	rootCmd.AddCommand(exportCmd)

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a gzip-compressed JSON export into the snapshot store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(configPath, args[0])
		},
	}
	rootCmd.AddCommand(importCmd)

	maintainCmd := &cobra.Command{
		Use:   "maintain",
		Short: "Load the snapshot and run the background pruning loop",
		Long: `Load the stored snapshot, run the configured eviction policy on an
interval, and persist the result on shutdown (SIGINT/SIGTERM).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintain(configPath)
		},
	}
	rootCmd.AddCommand(maintainCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, builds the logger, and opens an empty store.
func setup(configPath string) (*config.Config, *zap.Logger, *stratum.KB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	kb, err := stratum.New(stratum.Options{Logger: log})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, kb, nil
}

// loadSnapshot restores the on-disk image into kb, tolerating a fresh
// (empty) snapshot directory.
func loadSnapshot(cfg *config.Config, kb *stratum.KB) (*snapshot.Store, error) {
	store, err := snapshot.Open(cfg.Snapshot.Dir)
	if err != nil {
		return nil, err
	}
	if err := store.Load(kb); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return store, nil
		}
		store.Close()
		return nil, err
	}
	return store, nil
}

func runStats(configPath string) error {
	cfg, log, kb, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer kb.Close()

	store, err := loadSnapshot(cfg, kb)
	if err != nil {
		return err
	}
	defer store.Close()

	stats := kb.Stats()
	for _, tier := range storage.Tiers() {
		ts := stats.Tiers[tier]
		fmt.Printf("%-8s  %8d nodes  %8d edges\n", tier, ts.Nodes, ts.Edges)
	}
	fmt.Printf("%-8s  %8d nodes  %8d edges\n", "total", stats.TotalNodes, stats.TotalEdges)
	fmt.Printf("history   %8d diffs\n", stats.HistorySize)
	return nil
}

func runDemo(configPath string) error {
	_, log, kb, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer kb.Close()

	alice, err := kb.InsertNode("Person", graph.Properties{
		"name": graph.String("Alice"),
		"dept": graph.String("Engineering"),
		"age":  graph.Int(34),
	})
	if err != nil {
		return err
	}
	bob, err := kb.InsertNode("Person", graph.Properties{
		"name": graph.String("Bob"),
		"dept": graph.String("Sales"),
		"age":  graph.Int(29),
	})
	if err != nil {
		return err
	}
	if _, err := kb.InsertEdge(alice.ID, bob.ID, "mentors", nil); err != nil {
		return err
	}

	res, err := kb.QueryNodes("Person", graph.Properties{"dept": graph.String("Engineering")})
	if err != nil {
		return err
	}
	fmt.Printf("engineers: %d (in %s, tier %s)\n", len(res.Nodes), res.Elapsed, res.Tier)

	res, err = kb.QueryConnectedNodes(alice.ID, "mentors", stratum.DirectionOutgoing)
	if err != nil {
		return err
	}
	fmt.Printf("alice mentors %d people\n", len(res.Nodes))

	undone, err := kb.Rollback(3)
	if err != nil {
		return err
	}
	fmt.Printf("rolled back %d operations, store is empty again: %v\n",
		undone, kb.Stats().TotalNodes == 0)
	return nil
}

func runExport(configPath, file string) error {
	cfg, log, kb, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer kb.Close()

	store, err := loadSnapshot(cfg, kb)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	defer f.Close()

	if err := kb.ExportJSON(f); err != nil {
		return err
	}
	fmt.Printf("exported %d nodes, %d edges to %s\n",
		kb.Stats().TotalNodes, kb.Stats().TotalEdges, file)
	return nil
}

func runImport(configPath, file string) error {
	cfg, log, kb, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer kb.Close()

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	if err := kb.ImportJSON(f); err != nil {
		return err
	}

	store, err := snapshot.Open(cfg.Snapshot.Dir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(kb); err != nil {
		return err
	}

	fmt.Printf("imported %d nodes, %d edges from %s\n",
		kb.Stats().TotalNodes, kb.Stats().TotalEdges, file)
	return nil
}

func runMaintain(configPath string) error {
	cfg, log, kb, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer kb.Close()

	store, err := loadSnapshot(cfg, kb)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pruner := maintain.New(kb, cfg.Maintenance, cfg.Tiers, log)
	log.Info("maintenance loop starting",
		zap.String("policy", cfg.Maintenance.Policy),
		zap.Duration("interval", cfg.Maintenance.Interval))

	if err := pruner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}

	log.Info("shutting down, persisting snapshot")
	return store.Save(kb)
}
