package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/edu-console/fakeapi"
	"github.com/jrsteele09/edu-console/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// apiPrefix matches the path of the default API_BASE_URL.
const apiPrefix = "/api"

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("sandbox stopped")
	}
	log.Info().Msg("sandbox stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New("")
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName() + " Sandbox")

	api := fakeapi.NewFromConfig(c, fakeapi.WithLogger(log.Logger))
	if err := api.SeedDemo(); err != nil {
		return fmt.Errorf("fakeapi.SeedDemo: %w", err)
	}
	for _, a := range fakeapi.DemoAccounts {
		log.Info().Str("username", a.Username).Str("password", a.Password).Str("role", a.Role.String()).Msg("demo account")
	}

	mux := http.NewServeMux()
	mux.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, api))
	server := &http.Server{Addr: c.GetSandboxPort(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Str("prefix", apiPrefix).Msg("sandbox listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
