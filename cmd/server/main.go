// Command server hosts Koi-Koi matches against the CPU over WebSocket.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/koikoi/internal/auth"
	"github.com/jason-s-yu/koikoi/internal/cache"
	"github.com/jason-s-yu/koikoi/internal/config"
	"github.com/jason-s-yu/koikoi/internal/database"
	"github.com/jason-s-yu/koikoi/internal/game"
	"github.com/jason-s-yu/koikoi/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := cfg.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	cpu, err := cfg.CPUPolicy()
	if err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := database.Open(openCtx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	var historian game.ActionPublisher
	if cfg.RedisAddr != "" {
		h, err := cache.Connect(openCtx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer h.Close()
		historian = h
		log.WithField("addr", cfg.RedisAddr).Info("action log enabled")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		log.Warn("KOIKOI_JWT_SECRET is unset; sessions will not survive a restart")
	}
	signer, err := auth.NewSigner(secret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:      cfg.Addr,
		Rules:     rules,
		Seed:      cfg.Seed,
		CPU:       cpu,
		Origins:   cfg.Origins,
		Signer:    signer,
		Store:     store,
		Historian: historian,
		Log:       log,
	})
	if err != nil {
		return err
	}
	err = srv.ListenAndServe(ctx)
	srv.WaitForSaves()
	return err
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
