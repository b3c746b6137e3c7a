// Package escrowd parses escrow service flags and starts the HTTP runtime.
package escrowd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundhaus/fundhaus/internal/api"
	"github.com/fundhaus/fundhaus/internal/escrow/service"
	entrypoint "github.com/fundhaus/fundhaus/internal/platform/cmd"
	"github.com/fundhaus/fundhaus/internal/storage/sqlite"
	"github.com/fundhaus/fundhaus/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

// Config holds escrow service configuration.
type Config struct {
	Addr      string `env:"FUNDHAUS_ADDR"       envDefault:":8080"`
	DBPath    string `env:"FUNDHAUS_DB_PATH"    envDefault:"fundhaus.db"`
	JWTSecret string `env:"FUNDHAUS_JWT_SECRET"`
	JWTIssuer string `env:"FUNDHAUS_JWT_ISSUER" envDefault:"fundhaus"`
	Env       string `env:"FUNDHAUS_ENV"        envDefault:"production"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("FUNDHAUS_JWT_SECRET is required")
	}
	return cfg, nil
}

// NewLogger constructs the service logger. Development gets human-readable
// console output; everything else logs JSON.
func NewLogger(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}

// Run starts the escrow ledger HTTP service and blocks until ctx is
// cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceEscrow, func(ctx context.Context) error {
		logger := NewLogger(cfg.Env)

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("close store")
			}
		}()

		ledger := service.NewLedger(store)
		walletSvc := wallet.NewService(store)
		signer := api.NewTokenSigner(cfg.JWTSecret, cfg.JWTIssuer)
		server := api.NewServer(ledger, walletSvc, signer, logger)

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.NewRouter(server),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("escrow ledger listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info().Msg("server stopped")
		return <-errCh
	})
}
