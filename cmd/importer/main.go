package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"heritage_hunter/internal/adapters/geocode"
	"heritage_hunter/internal/adapters/observability"
	redisad "heritage_hunter/internal/adapters/redis"
	"heritage_hunter/internal/app"
	"heritage_hunter/internal/domain"
	"heritage_hunter/internal/shared"
	mysqlrepo "heritage_hunter/internal/storage/mysql"
)

var (
	filePath   string
	dirPath    string
	mode       string
	runGeocode bool
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Load scraped CAMRA heritage pubs into the store",
	Long: `Reads a scraper export (a JSON array of pubs), matches each record to an
existing pub by CAMRA id or address and updates it, or wipes and reloads
everything in fresh_import mode. Optionally geocodes pubs without coordinates.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&filePath, "file", "", "scraper export to import")
	rootCmd.Flags().StringVar(&dirPath, "dir", "", "directory to take the latest "+app.ExportPattern+" from (default IMPORT_DIR)")
	rootCmd.Flags().StringVar(&mode, "mode", string(app.ModeUpdate), "update or fresh_import")
	rootCmd.Flags().BoolVar(&runGeocode, "geocode", false, "geocode pubs missing coordinates after the import")
	rootCmd.MarkFlagsMutuallyExclusive("file", "dir")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(observability.LogOptions{Env: cfg.AppEnv, Level: cfg.LogLevel, Service: "importer"})

	m, err := app.ParseImportMode(mode)
	if err != nil {
		return err
	}
	path, err := inputPath(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Str("mode", string(m)).Int("workers", cfg.Workers).Msg("importer starting")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	records, err := app.ReadRecords(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	datasets := app.NewDatasetService(repo, cache, cfg.CacheTTL)

	var geo domain.Geocoder
	if runGeocode {
		c, err := geocode.New(cfg.GeocodeBase, cfg.GeocodeKey, 5)
		if err != nil {
			return fmt.Errorf("geocoder: %w", err)
		}
		geo = c
	}
	svc := app.NewImportService(repo, geo, datasets)

	rep, err := svc.Import(ctx, records, m)
	if err != nil {
		return err
	}
	for _, c := range rep.Changes {
		log.Info().Msg(c)
	}
	for _, line := range rep.StatsLines() {
		log.Info().Msg(line)
	}
	log.Info().
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("unchanged", rep.Unchanged).
		Int("skipped", rep.Skipped).
		Msg("import completed")

	if !runGeocode {
		return nil
	}
	g, err := svc.GeocodeMissing(ctx, cfg.Workers)
	log.Info().Int("filled", g.Filled).Int("failed", g.Failed).Msg("geocoding completed")
	return err
}

func inputPath(cfg shared.Config) (string, error) {
	if filePath != "" {
		return filePath, nil
	}
	dir := dirPath
	if dir == "" {
		dir = cfg.ImportDir
	}
	return app.LatestExport(dir)
}
