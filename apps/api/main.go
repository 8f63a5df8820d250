package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/myst-6/messaging/pkg/auth"
	"github.com/myst-6/messaging/pkg/config"
	"github.com/myst-6/messaging/pkg/presence"
)

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow all for dev, or specific origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	authn := auth.New(cfg.JWTSecret)

	// Public endpoint
	http.Handle("/login", CORSMiddleware(loginHandler(authn)))

	// Mirrored presence, readable without touching the gateway
	if cfg.RedisAddr != "" {
		mirror := presence.NewMirror(cfg.RedisAddr)
		defer mirror.Close()
		http.Handle("/rooms/", CORSMiddleware(authn.Middleware(presenceHandler(mirror))))
	}

	logger.Info("api service starting", "addr", cfg.APIAddr)
	if err := http.ListenAndServe(cfg.APIAddr, nil); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}
