package handlers

import (
	"net/http"

	"investbook/internal/cache"
	"investbook/internal/config"
	"investbook/internal/db"
	"investbook/internal/middleware"
	"investbook/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gorillaws "github.com/gorilla/websocket"
)

type Handler struct {
	txRunner   db.TxRunner
	cfg        config.Config
	users      UserStore
	portfolios PortfolioStore
	buckets    BucketStore
	audit      AuditStore
	ledger     LedgerService
	fx         FxService
	positions  PositionService
	summaries  SummaryService
	cache      cache.Cache
	hub        *websocket.Hub
	upgrader   gorillaws.Upgrader
	limiter    *middleware.RateLimiter
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, portfolios PortfolioStore, buckets BucketStore, audit AuditStore, ledger LedgerService, fx FxService, positions PositionService, summaries SummaryService, c cache.Cache, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:   txRunner,
		cfg:        cfg,
		users:      users,
		portfolios: portfolios,
		buckets:    buckets,
		audit:      audit,
		ledger:     ledger,
		fx:         fx,
		positions:  positions,
		summaries:  summaries,
		cache:      c,
		hub:        hub,
		upgrader:   websocket.Upgrader(cfg.Origins()),
		limiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	router.With(middleware.QueryAuth(h.cfg.JWTSecret)).Get("/ws/events", h.Events)

	router.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Post("/auth/login", h.Login)
		r.Post("/users", h.CreateUser)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(h.limiter.Middleware)

		r.Get("/auth/me", h.Me)
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Get("/portfolios", h.ListPortfolios)
		r.Post("/portfolios", h.CreatePortfolio)
		r.Get("/fx-rates", h.ListFxRates)
		r.Post("/fx-rates", h.CreateFxRate)

		r.Route("/portfolios/{pid}", func(r chi.Router) {
			r.Use(middleware.RequirePortfolioOwner(h.portfolios))
			r.Get("/", h.GetPortfolio)
			r.Get("/buckets", h.ListBuckets)
			r.Post("/buckets", h.CreateBucket)
			r.Get("/buckets/{bid}", h.GetBucket)
			r.Patch("/buckets/{bid}", h.UpdateBucket)
			r.Get("/buckets/{bid}/position", h.GetPosition)
			r.Get("/buckets/{bid}/history", h.BucketHistory)
			r.Get("/buckets/{bid}/snapshots", h.ListSnapshots)
			r.Post("/buckets/{bid}/snapshots", h.CreateSnapshot)
			r.Get("/transactions", h.ListTransactions)
			r.Post("/transactions", h.CreateTransaction)
			r.Get("/summaries", h.GetSummaries)
		})
	})
	return router
}
