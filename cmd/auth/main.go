package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokengate/internal/auth/cleanup"
	"tokengate/internal/common/bootstrap"
	"tokengate/internal/common/constants"
	commonhttp "tokengate/internal/common/http"
	"tokengate/internal/common/server"
)

func main() {
	app, err := bootstrap.NewAuthApp("auth")
	if err != nil {
		log.Fatalf("failed to bootstrap auth service: %v", err)
	}
	defer app.Close()

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go cleanup.StartTokenCleanup(cleanupCtx, app.Tokens, app.Log, constants.TokenCleanupInterval)

	mux := http.NewServeMux()
	app.Handler.Register(mux, commonhttp.NewStrictRateLimiter())
	mux.Handle("/metrics", promhttp.Handler())

	handler := commonhttp.BuildBaseHandler("auth", app.Log, mux)
	srv := server.NewServer(server.DefaultServerConfig(app.Config.HTTPPort), handler)

	server.StartWithGracefulShutdownAndHooks(srv, app.Log, "auth", []server.ShutdownHook{
		func(ctx context.Context) error {
			stopCleanup()
			return nil
		},
	})
}
