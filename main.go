package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/EmpoweredVote/cost-navigator/internal/ask"
	"github.com/EmpoweredVote/cost-navigator/internal/config"
	"github.com/EmpoweredVote/cost-navigator/internal/db"
	"github.com/EmpoweredVote/cost-navigator/internal/middleware"
	"github.com/EmpoweredVote/cost-navigator/internal/providers"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Healthcare Cost Navigator is up!")
}

func healthHandler(gdb *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		if err := db.Ping(r.Context(), gdb); err != nil {
			log.Printf("[health] db ping: %v", err)
			status = "unhealthy"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","database":%q}`+"\n", status)
	}
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if n, err := db.CountProviders(ctx, gdb); err != nil {
		log.Printf("[startup] count providers: %v", err)
	} else {
		log.Printf("[startup] providers loaded: %d rows", n)
	}
	cancel()

	svc, _ := providers.Init(gdb, cfg)
	askHandlers := ask.Init(gdb, cfg)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/", RootHandler)
	r.Get("/health", healthHandler(gdb))

	r.Mount("/providers", providers.SetupRoutes(providers.NewHandlers(svc, cfg.DefaultRadiusKm, cfg.MaxRadiusKm)))
	r.Mount("/ask", ask.SetupRoutes(askHandlers, middleware.RateLimit(cfg.AskRatePerSecond, cfg.AskBurst)))

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
