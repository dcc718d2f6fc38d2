package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"moodcircle/internal/handlers"
	"moodcircle/internal/insights"
	"moodcircle/internal/metrics"
	mw "moodcircle/internal/middleware"
	"moodcircle/internal/services"
	"moodcircle/internal/store"
)

// Deps is everything the HTTP layer needs. Services share one Store.
type Deps struct {
	Store    store.Store
	Users    *services.UserService
	Journals *services.JournalService
	Circles  *services.CircleService
	Gateway  insights.Gateway
	Auth     *mw.AuthMiddleware
	Logger   *zap.Logger

	SessionTTL     time.Duration
	CookieSecure   bool
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.ZapRequestLogger(d.Logger))
	r.Use(mw.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(d.Users, d.Auth, d.SessionTTL, d.CookieSecure, d.Logger)
	userHandler := handlers.NewUserHandler(d.Users, d.Logger)
	journalHandler := handlers.NewJournalHandler(d.Journals, d.Logger)
	dashboardHandler := handlers.NewDashboardHandler(d.Journals, d.Logger)
	circleHandler := handlers.NewCircleHandler(d.Circles, d.Logger)
	analyzerHandler := handlers.NewAnalyzerHandler(d.Gateway, d.Logger)

	r.Get("/healthz", healthz(d.Store))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.Post("/logout", authHandler.Logout)

		api.Group(func(pr chi.Router) {
			pr.Use(d.Auth.RequireAuth)

			pr.Get("/user", userHandler.GetMe)

			pr.Get("/journals", journalHandler.List)
			pr.Get("/journals/my", journalHandler.ListMine)
			pr.Get("/journals/stats", dashboardHandler.Get)
			pr.Post("/journals", journalHandler.Create)
			pr.Get("/journals/{id}", journalHandler.Get)
			pr.Patch("/journals/{id}/share", journalHandler.Share)

			pr.Post("/circles", circleHandler.Create)
			pr.Get("/circles", circleHandler.List)
			pr.Get("/circles/{id}/members", circleHandler.ListMembers)
			pr.Post("/circles/{id}/members", circleHandler.AddMember)
			pr.Delete("/circles/{circleId}/members/{userId}", circleHandler.RemoveMember)

			pr.Post("/insights", analyzerHandler.Insights)
			pr.Post("/recommendations", analyzerHandler.Recommendations)
			pr.Post("/chat", analyzerHandler.Chat)
		})
	})

	return r
}

func healthz(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := st.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}
