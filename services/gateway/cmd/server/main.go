package main

import (
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitpro/internal/usertoken"
	"fitpro/internal/util"
	"fitpro/services/gateway/internal/config"
	"fitpro/services/gateway/internal/server"
	"fitpro/services/gateway/internal/upstream"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	// Offline token verification is opt-in; without a shared secret the
	// gateway forwards bearer tokens untouched and lets the upstream decide.
	var tokenVerifier *usertoken.Verifier
	if strings.TrimSpace(cfg.TokenSecret) != "" {
		leeway, err := config.ParseTokenLeeway(cfg.TokenLeeway)
		if err != nil {
			log.Fatalf("failed to parse token leeway: %v", err)
		}
		tokenVerifier, err = usertoken.NewVerifier(usertoken.Config{
			Secret: cfg.TokenSecret,
			Issuer: cfg.TokenIssuer,
			Leeway: leeway,
		})
		if err != nil {
			log.Fatalf("failed to init token verifier: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		Upstream:                upstream.NewClient(cfg.UpstreamURL),
		TokenVerifier:           tokenVerifier,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		LoginRateLimitPerMinute: cfg.LoginRateLimitPerMinute,
		TrustedProxyCIDRs:       cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("gateway server listening", "addr", addr, "upstream", cfg.UpstreamURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
