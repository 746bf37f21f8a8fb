package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"tradeflow/internal/config"
	"tradeflow/internal/db"
	"tradeflow/internal/importer"
	"tradeflow/internal/logger"
	"tradeflow/internal/repository"

	"go.uber.org/zap"
)

type options struct {
	productsPath string
	partnersPath string
	dryRun       bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.ForEnvironment(cfg.Env, cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, opts, log); err != nil {
		log.Fatal("import failed", zap.Error(err))
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.StringVar(&opts.productsPath, "products", "", "path to a product catalogue (.xlsx or .csv)")
	fs.StringVar(&opts.partnersPath, "partners", "", "path to a partner list (.xlsx or .csv)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "normalize and report without writing to the database")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.productsPath == "" && opts.partnersPath == "" {
		return opts, errors.New("at least one of -products or -partners is required")
	}
	return opts, nil
}

func readFile(path string) ([]importer.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := importer.ReadRows(filepath.Base(path), file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func run(ctx context.Context, cfg config.Config, opts options, log *zap.Logger) error {
	im := importer.New()

	var (
		productRows, partnerRows []importer.Row
		err                      error
	)
	if opts.productsPath != "" {
		if productRows, err = readFile(opts.productsPath); err != nil {
			return err
		}
	}
	if opts.partnersPath != "" {
		if partnerRows, err = readFile(opts.partnersPath); err != nil {
			return err
		}
	}

	products, productErrs := im.Products(productRows)
	partners, partnerErrs := im.Partners(partnerRows)
	for _, rowErr := range productErrs {
		log.Warn("product row rejected", zap.String("file", opts.productsPath), zap.String("reason", rowErr.Error()))
	}
	for _, rowErr := range partnerErrs {
		log.Warn("partner row rejected", zap.String("file", opts.partnersPath), zap.String("reason", rowErr.Error()))
	}

	if opts.dryRun {
		log.Info("dry run complete",
			zap.Int("products", len(products)),
			zap.Int("partners", len(partners)),
			zap.Int("rejected", len(productErrs)+len(partnerErrs)),
		)
		return nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 4})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	repo := repository.New(pool)
	upserted, err := repo.UpsertProducts(ctx, products)
	if err != nil {
		return err
	}
	inserted, err := repo.InsertPartners(ctx, partners)
	if err != nil {
		return err
	}

	log.Info("import complete",
		zap.Int("products_inserted", upserted.Inserted),
		zap.Int("products_updated", upserted.Updated),
		zap.Int("partners_inserted", inserted),
		zap.Int("rejected", len(productErrs)+len(partnerErrs)),
	)
	return nil
}
