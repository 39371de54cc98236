package main

import (
	auth "Inertia/internal/auth"
	batch "Inertia/internal/calc/batch"
	importer "Inertia/internal/calc/importer"
	live "Inertia/internal/calc/live"
	opening "Inertia/internal/calc/opening"
	recommend "Inertia/internal/calc/recommend"
	report "Inertia/internal/calc/report"
	config "Inertia/internal/config"
	model "Inertia/internal/model"
	repo "Inertia/internal/repo"
	section "Inertia/internal/section"
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, cfg config.Config, calc *opening.Calculator, hub *live.Hub) {
	tokenEnv := &auth.TokenEnv{JWTkey: []byte(cfg.TokenKey)}
	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	openingH := &opening.Handler{Service: calc}
	batchH := &batch.Handler{Calc: calc}
	importH := &importer.Handler{Calc: calc}
	reportH := &report.Handler{Source: calc}
	recommendH := &recommend.Handler{Catalog: calc.Catalog}

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/sections", openingH.Sections).Methods("GET")
	api.HandleFunc("/results", openingH.Results).Methods("GET")
	api.HandleFunc("/results/export/{format}", reportH.Generate).Methods("GET")
	api.HandleFunc("/recommend/opening", recommendH.Opening).Methods("POST")
	api.HandleFunc("/recommend/sections", recommendH.Sections).Methods("POST")

	secure := func(h http.HandlerFunc) http.Handler { return tokenEnv.AuthMiddleware(h) }
	api.Handle("/calc", secure(openingH.Calc)).Methods("POST")
	api.Handle("/calc/batch", secure(batchH.Run)).Methods("POST")
	api.Handle("/calc/import", secure(importH.Import)).Methods("POST")
	api.Handle("/results", secure(openingH.Clear)).Methods("DELETE")

	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())
}

func openRepository(ctx context.Context, cfg config.Config) (repo.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("storing results in memory")
		return repo.NewMemoryResultRepository(), func() {}, nil
	}
	db, err := repo.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := repo.NewPostgresResultDB(db)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("storing results in postgres")
	return pg, func() { db.Close() }, nil
}

func loadPredictor(path string) model.Predictor {
	m, err := model.Load(path)
	if err != nil {
		log.WithError(err).Warn("model not loaded, calculations will fail until it is fixed")
		return model.Unavailable{Err: err}
	}
	log.WithFields(log.Fields{"path": path, "name": m.Name, "trees": len(m.Trees)}).Info("model loaded")
	return m
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	cfg.SetupLogging()

	store, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal("Error opening result store: ", err)
	}
	defer closeStore()

	hub := live.NewHub()
	calc := &opening.Calculator{
		Catalog:   section.MustDefault(),
		Predictor: loadPredictor(cfg.ModelPath),
		Repo:      store,
		Notifier:  hub,
	}

	mux := mux.NewRouter()
	HandleList(mux, cfg, calc, hub)
	handler := CORS(mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.ListenAddr)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Error stopping server: %v", err)
	}
	log.Println("Server stopped")

	wg.Wait()
}
