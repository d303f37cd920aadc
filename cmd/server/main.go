package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paperstudio/backend/internal/auth"
	"github.com/paperstudio/backend/internal/cite"
	"github.com/paperstudio/backend/internal/config"
	"github.com/paperstudio/backend/internal/editor"
	"github.com/paperstudio/backend/internal/middleware"
	"github.com/paperstudio/backend/internal/orchestrator"
	"github.com/paperstudio/backend/internal/project"
	"github.com/paperstudio/backend/internal/relay"
	"github.com/paperstudio/backend/internal/reporttypes"
	"github.com/paperstudio/backend/internal/store"
	"github.com/paperstudio/backend/internal/suggest"
	"github.com/paperstudio/backend/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	artifacts, err := store.NewArtifactStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── External services ────────────────────────────────────
	aiClient := orchestrator.NewClient(cfg.AIServiceURL)
	latexClient := orchestrator.NewLaTeXClient(cfg.LaTeXServiceURL)
	suggestClient := suggest.NewClient(cfg.SuggestionServiceURL)

	// ── Report type registry ─────────────────────────────────
	typeRegistry, err := reporttypes.Load(cfg.ReportTypesPath)
	if err != nil {
		log.Fatalf("report types: %v", err)
	}

	// ── Relay, runner, services ──────────────────────────────
	registry := relay.New()
	runner := project.NewRunner(registry, pgStore, mongoStore, pgStore, artifacts, aiClient, latexClient,
		func() string { return uuid.New().String() })
	debouncer := suggest.NewDebouncer(suggestClient, cfg.SuggestionDelay, cfg.SuggestionMinChars)
	editorSvc := editor.NewService(pgStore)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(pgStore, sessions)
	projectHandler := project.NewHandler(pgStore, mongoStore, artifacts, registry, runner, latexClient)
	editorHandler := editor.NewHandler(editorSvc, debouncer, suggestClient, cfg.MaxUploadBytes)
	citeHandler := cite.NewHandler(pgStore)
	typeHandler := reporttypes.NewHandler(typeRegistry)
	wsHandler := ws.NewHandler(registry, cfg.AllowedOrigins)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)
	})

	// Streaming channel
	r.With(middleware.RequireAuth(sessions)).Get("/ws", wsHandler.Serve)

	// Report type lookups (read-only configuration)
	r.Route("/api/report-types", func(r chi.Router) {
		r.Get("/", typeHandler.List)
		r.Get("/full", typeHandler.Full)
		r.Get("/{id}", typeHandler.Get)
		r.Get("/{id}/template", typeHandler.Template)
	})

	// Project routes (protected)
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/", projectHandler.Create)
		r.Get("/", projectHandler.List)
		r.Get("/{id}", projectHandler.Get)
		r.Delete("/{id}", projectHandler.Delete)
		r.Post("/{id}/generate", projectHandler.Generate)
		r.Post("/{id}/compile", projectHandler.Compile)
		r.Get("/{id}/download", projectHandler.Download)
		r.Get("/{id}/tex", projectHandler.DownloadTex)
		r.Post("/{id}/citations", citeHandler.Create)
		r.Get("/{id}/citations", citeHandler.List)
	})

	// Generation session lookups (protected)
	r.With(middleware.RequireAuth(sessions)).
		Get("/api/sessions/{sessionID}", projectHandler.GetSession)

	// Section editor routes (protected)
	r.Route("/api/sections/{reportID}", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Get("/", editorHandler.List)
		r.Post("/", editorHandler.Create)
		r.Post("/reorder", editorHandler.Reorder)
		r.Post("/import", editorHandler.Import)
		r.Get("/suggestions/{sectionID}", editorHandler.Suggestions)
		r.Put("/{sectionID}", editorHandler.Update)
		r.Delete("/{sectionID}", editorHandler.Delete)
		r.Post("/{sectionID}/select", editorHandler.Select)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
