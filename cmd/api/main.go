package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evident.org/internal/audit"
	"evident.org/internal/auth"
	"evident.org/internal/config"
	"evident.org/internal/httpapi"
	"evident.org/internal/obs"
	"evident.org/internal/rag"
	"evident.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("EVIDENT_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := pg.Open(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()
	db := store.DB()
	if cfg.DB.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime.Std())
	}

	tokens, err := auth.NewTokens(cfg.JWT.Secret,
		auth.WithIssuer(cfg.JWT.Issuer),
		auth.WithAccessTTL(cfg.JWT.AccessTTL.Std()),
		auth.WithRefreshTTL(cfg.JWT.RefreshTTL.Std()),
	)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	resets := auth.NewResetTokenStore(cfg.Reset.TokenTTL.Std())
	svc, err := auth.NewService(store, tokens, resets)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go resets.Sweep(ctx, cfg.Reset.SweepInterval.Std())

	if cfg.Admin.Password != "" {
		bootCtx, bootCancel := context.WithTimeout(ctx, 10*time.Second)
		admin, created, err := svc.EnsureAdmin(bootCtx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		bootCancel()
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("bootstrap admin %q created", admin.Username)
		}
	}

	trail := audit.NewPGStore(db)
	qa := rag.NewService(rag.Settings{
		EmbeddingModel:      cfg.RAG.EmbeddingModel,
		TopK:                cfg.RAG.TopK,
		ConfidenceThreshold: cfg.RAG.ConfidenceThreshold,
	})

	api := httpapi.New(svc, trail, qa, httpapi.ReadyProbe{DB: db}, cfg, version)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout.Std(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout.Std(),
		WriteTimeout:      cfg.Server.WriteTimeout.Std(),
		IdleTimeout:       cfg.Server.IdleTimeout.Std(),
	}

	log.Printf("Starting evident-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
