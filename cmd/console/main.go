package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/edu-console/academy"
	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/internal/config"
	apperrors "github.com/jrsteele09/edu-console/internal/errors"
	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/token/redisstore"
	"github.com/jrsteele09/edu-console/token/sqlitestore"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	ctx := context.Background()

	cfg, err := config.New("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := newLogger(cfg, os.Stderr)

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	client := gateway.NewFromConfig(cfg, store, gateway.WithLogger(logger))
	cli := &commandLine{
		client:  client,
		session: sessions.NewManager(client, sessions.WithLogger(logger)),
		svc:     academy.NewService(client),
		out:     os.Stdout,
	}

	if len(args) > 1 && args[1] == "login" {
		displayAppname(cfg.GetAppName())
	}
	if err := cli.run(ctx, args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, apperrors.Message(err))
		}
		if errors.Is(err, apperrors.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "Run `console login -username NAME` to sign in again.")
		}
		return 1
	}
	return 0
}

func newLogger(cfg config.EnvConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().Timestamp().Str("env", cfg.GetEnv()).
		Logger()
}

// openStore picks the configured token backend. A backend that cannot be
// opened leaves the console on in-memory tokens for this run.
func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (*token.Store, func()) {
	var (
		backend token.Backend
		closer  io.Closer
	)

	switch cfg.GetTokenStore() {
	case config.StoreSQLite:
		s, err := sqlitestore.Open(cfg.GetTokenDBPath())
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GetTokenDBPath()).Msg("sqlite token store unavailable")
			break
		}
		backend, closer = s, s
	case config.StoreRedis:
		s, err := redisstore.Open(cfg.GetRedisURL())
		if err != nil {
			logger.Warn().Err(err).Msg("redis token store unavailable")
			break
		}
		backend, closer = s, s
	}

	store := token.NewStore(ctx, backend, token.WithLogger(logger))
	return store, func() {
		if closer != nil {
			_ = closer.Close()
		}
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
