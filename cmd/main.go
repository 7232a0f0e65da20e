/*
Package main is the entry point for the chatbot client.

It loads configuration, initializes the global logging system, opens the identity
store, wires the session, API client, real-time channel and navigator together and
runs the terminal loop until EOF or an interrupt signal (SIGINT, SIGTERM). On exit
the real-time channel is disconnected and the store is closed.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"botclient/internal/app/api"
	"botclient/internal/app/realtime"
	"botclient/internal/app/session"
	"botclient/internal/app/storage"
	"botclient/internal/configs"
	"botclient/internal/handler"
	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/limiter"
	"botclient/internal/pkg/logx"
)

func main() {
	// A missing .env is fine; the environment may already carry the settings.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.SetLevel(cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("api_variant", cfg.APIVariant).
		Str("api_base_url", cfg.APIBaseURL).
		Str("socket_url", cfg.SocketURL).
		Strs("transports", cfg.Transports).
		Str("identity_store", cfg.IdentityStore).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	defer func() {
		if d, ok := store.(storage.Degradable); ok && d.Degraded() {
			logx.Warn("Identity store degraded during this run; recent changes were kept in memory only",
				"driver", cfg.IdentityStore, "path", cfg.IdentityStorePath)
		}
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logx.Error(err, "Failed to close identity store")
			}
		}
	}()

	// One jar so cookies set by the API reach the real-time handshake.
	jar := api.NewJar()
	contract := api.ContractFor(cfg.APIVariant)

	rt := realtime.NewManager(realtime.Config{
		URL:        cfg.SocketURL,
		Transports: cfg.Transports,
		Jar:        jar,
	})
	defer rt.Disconnect()

	opts := []session.Option{session.WithChannel(rt)}
	if contract.Roles {
		opts = append(opts, session.WithDefaultRoles())
	}
	sess := session.NewState(store, opts...)

	var throttle *limiter.EndpointLimiter
	if cfg.APIRateLimit > 0 {
		throttle = limiter.NewEndpointLimiter(rate.Limit(cfg.APIRateLimit), cfg.APIRateBurst)
	}

	client, err := api.New(api.Config{
		BaseURL:  cfg.APIBaseURL,
		Contract: contract,
		Timeout:  cfg.RequestTimeout,
		Jar:      jar,
		Throttle: throttle,
	})
	if err != nil {
		logx.Fatal(err, "Failed to create API client")
	}

	deps, err := handler.NewAppDeps(cfg, store, sess, client, rt, os.Stdout)
	if err != nil {
		logx.Fatal(err, "Failed to build navigator")
	}

	if _, err := deps.Navigator.Navigate(ctx, handler.PathLanding); err != nil {
		logx.Error(err, "Failed to open landing view")
	}

	if err := handler.RunREPL(ctx, deps, os.Stdin); err != nil {
		logx.Error(err, "Input loop stopped")
	}

	logx.Info("Client stopped.")
}

// openStore opens the configured identity store, falling back to memory.
func openStore(cfg *configs.AppConfig) storage.Store {
	store, err := storage.NewStore(storage.ServiceConfig{
		Driver: cfg.IdentityStore,
		Path:   cfg.IdentityStorePath,
	})
	if err != nil {
		if !errs.Is(err, errs.ErrStorageUnavailable) {
			logx.Error(err, "Unexpected identity store error")
		}
		logx.Warn("Identity store unavailable, keeping the session in memory only",
			"driver", cfg.IdentityStore, "path", cfg.IdentityStorePath)
		return storage.NewMemory()
	}
	return store
}
