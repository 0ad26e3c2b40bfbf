package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"ainews/config"
	"ainews/database"
	"ainews/handlers"
	"ainews/middleware"
	"ainews/services"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Initialize services
	bus := services.NewEventBus()
	logService := services.NewLogService(db, bus)
	sourceService := services.NewSourceService(db)
	articleService := services.NewArticleService(db, bus)
	fetchService := services.NewFetchService(cfg)
	pipelineService := services.NewPipelineService(sourceService, articleService, fetchService, logService, cfg.SourceFetchDelay)
	summaryService := services.NewSummaryService(cfg, articleService, logService)
	automationService := services.NewAutomationService(db, cfg, sourceService, articleService, pipelineService, summaryService, logService, bus)
	authService := services.NewAuthService(db)
	opmlService := services.NewOPMLService(sourceService)

	if err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("Failed to bootstrap admin user:", err)
	}

	// Initialize handlers
	automationHandlers := handlers.NewAutomationHandlers(automationService)
	newsHandlers := handlers.NewNewsHandlers(articleService, cfg)
	sourceHandlers := handlers.NewSourceHandlers(sourceService, opmlService)
	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.SessionSecret)

	// Setup routes
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "ok", "message": "ainews pipeline is running"}`)
	}).Methods("GET")

	// Stats
	api.HandleFunc("/stats", newsHandlers.GetStats).Methods("GET")

	// News routes
	api.HandleFunc("/news", newsHandlers.GetNews).Methods("GET")
	api.HandleFunc("/news/search", newsHandlers.SearchNews).Methods("GET")
	api.HandleFunc("/news/rss.xml", newsHandlers.GetRSS).Methods("GET")
	api.HandleFunc("/news/{id:[0-9]+}", newsHandlers.GetArticle).Methods("GET")

	// Source routes
	api.HandleFunc("/sources", sourceHandlers.GetSources).Methods("GET")
	api.Handle("/sources", authMiddleware.RequireAdmin(http.HandlerFunc(sourceHandlers.AddSource))).Methods("POST")
	api.Handle("/sources/{id:[0-9]+}/active", authMiddleware.RequireAdmin(http.HandlerFunc(sourceHandlers.SetActive))).Methods("PUT")
	api.Handle("/sources/export/opml", authMiddleware.RequireAdmin(http.HandlerFunc(sourceHandlers.ExportOPML))).Methods("GET")
	api.Handle("/sources/import/opml", authMiddleware.RequireAdmin(http.HandlerFunc(sourceHandlers.ImportOPML))).Methods("POST")

	// Automation control surface
	api.Handle("/automation/initialize", authMiddleware.RequireAdmin(http.HandlerFunc(automationHandlers.Initialize))).Methods("POST")
	api.HandleFunc("/automation/status", automationHandlers.GetStatus).Methods("GET")
	api.Handle("/automation/fetch", authMiddleware.RequireAdmin(http.HandlerFunc(automationHandlers.TriggerFetch))).Methods("POST")
	api.Handle("/automation/process-summaries", authMiddleware.RequireAdmin(http.HandlerFunc(automationHandlers.TriggerSummaryProcessing))).Methods("POST")
	api.Handle("/automation/cleanup", authMiddleware.RequireAdmin(http.HandlerFunc(automationHandlers.Cleanup))).Methods("POST")
	api.HandleFunc("/automation/health", automationHandlers.Health).Methods("GET")

	// Auth routes
	api.HandleFunc("/auth/login", authMiddleware.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authMiddleware.Logout).Methods("POST")
	api.HandleFunc("/auth/me", authMiddleware.Me).Methods("GET")

	// Passive observability over store events
	monitor := automationService.StartRealtimeMonitoring()
	defer monitor.Stop()

	// Setup background jobs
	setupCronJobs(cfg, pipelineService, summaryService, automationService, authService)

	fmt.Printf("ainews pipeline starting on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

func setupCronJobs(cfg *config.Config, pipeline *services.PipelineService, summary *services.SummaryService,
	automation *services.AutomationService, auth *services.AuthService) {
	c := cron.New()

	// Fetch cycle on the configured interval; summaries follow after a delay
	fetchSpec := fmt.Sprintf("0 */%d * * *", cfg.FetchIntervalHours)
	c.AddFunc(fetchSpec, func() {
		log.Println("Starting scheduled fetch cycle...")
		result, err := pipeline.RunFetchCycle(context.Background())
		if err != nil {
			log.Printf("Scheduled fetch cycle failed: %v", err)
			return
		}
		log.Printf("Scheduled fetch cycle done: %d new articles, %d errors", result.ArticlesFetched, result.Errors)

		if result.ArticlesFetched > 0 {
			scheduleSummaryPass(cfg, summary)
		}
	})

	// Retention cleanup daily at 2 AM
	c.AddFunc("0 2 * * *", func() {
		log.Println("Starting retention cleanup...")
		result := automation.PerformCleanup(context.Background())
		log.Println(result.Message)
	})

	// Expired session cleanup daily
	c.AddFunc("30 2 * * *", func() {
		if err := auth.CleanExpiredSessions(); err != nil {
			log.Printf("Failed to clean expired sessions: %v", err)
		}
	})

	c.Start()
	log.Println("Background jobs scheduled")
}

func scheduleSummaryPass(cfg *config.Config, summary *services.SummaryService) {
	time.AfterFunc(cfg.SummaryDelay, func() {
		processed, err := summary.ProcessPending(context.Background())
		if err != nil {
			log.Printf("Scheduled summary processing failed: %v", err)
			return
		}
		log.Printf("Scheduled summary processing done: %d articles", processed)
	})
}
