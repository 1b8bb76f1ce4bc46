package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ellisbray/homebase/internal/balance"
	"github.com/ellisbray/homebase/internal/handler"
	"github.com/ellisbray/homebase/internal/middleware"
	"github.com/ellisbray/homebase/internal/notify"
	"github.com/ellisbray/homebase/internal/store"
	"github.com/ellisbray/homebase/internal/upload"
	ws "github.com/ellisbray/homebase/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	summaryH     *handler.SummaryHandler
	choreH       *handler.ChoreHandler
	houseH       *handler.HouseHandler
	userH        *handler.UserHandler
	pushH        *handler.PushHandler
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	periodStore  *store.PeriodStore
	pushStore    *store.PushStore
	balanceSvc   *balance.Service
	notifySvc    *notify.Service
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, notifySvc *notify.Service, uploads *upload.Store, balanceCfg balance.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	houseStore := store.NewHouseStore(db)
	periodStore := store.NewPeriodStore(db)
	choreStore := store.NewChoreStore(db)
	pushStore := store.NewPushStore(db)
	sessionStore := store.NewSessionStore(db)

	var alerter *balance.Alerter
	if notifySvc != nil {
		alerter = balance.NewAlerter(pushStore, notifySvc, func(userID int64, netMinutes int) {
			hub.Broadcast(ws.BalanceEvent(userID, netMinutes))
		}, logger.With("component", "alerter"))
	}

	balanceSvc := balance.NewService(userStore, periodStore, alerter, balanceCfg, logger.With("component", "balance"))

	var pushH *handler.PushHandler
	if notifySvc != nil {
		pushH = handler.NewPushHandler(pushStore, notifySvc, logger.With("component", "push"))
	}

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		summaryH:     handler.NewSummaryHandler(balanceSvc, logger.With("component", "summary")),
		choreH:       handler.NewChoreHandler(choreStore, userStore, periodStore, pushStore, balanceSvc, uploads, notifySvc, hub, logger.With("component", "chore")),
		houseH:       handler.NewHouseHandler(houseStore, periodStore, hub, logger.With("component", "house")),
		userH:        handler.NewUserHandler(userStore, logger.With("component", "user")),
		pushH:        pushH,
		userStore:    userStore,
		sessionStore: sessionStore,
		periodStore:  periodStore,
		pushStore:    pushStore,
		balanceSvc:   balanceSvc,
		notifySvc:    notifySvc,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// UserStore returns the user store, shared with the background jobs.
func (s *Server) UserStore() *store.UserStore { return s.userStore }

// PeriodStore returns the period store, shared with the background jobs.
func (s *Server) PeriodStore() *store.PeriodStore { return s.periodStore }

// PushStore returns the push store, shared with the background jobs.
func (s *Server) PushStore() *store.PushStore { return s.pushStore }

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore { return s.sessionStore }

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter { return s.rateLimiter }

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.Handler())

	// Protected routes behind the session check
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	h := middleware.Metrics(outerMux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Balance summary
	mux.HandleFunc("GET /api/users/{id}/summary", s.summaryH.Get)

	// User administration
	mux.Handle("GET /api/users", middleware.RequireStaff(http.HandlerFunc(s.userH.List)))
	mux.Handle("GET /api/users/{id}", middleware.RequireStaff(http.HandlerFunc(s.userH.Get)))
	mux.Handle("PUT /api/users/{id}/period", middleware.RequireStaff(http.HandlerFunc(s.userH.SetPeriod)))
	mux.Handle("PUT /api/users/{id}/house", middleware.RequireStaff(http.HandlerFunc(s.userH.SetHouse)))
	mux.Handle("DELETE /api/users/{id}", middleware.RequireStaff(http.HandlerFunc(s.userH.Delete)))

	// Houses and their shared periods
	mux.Handle("POST /api/houses", middleware.RequireStaff(http.HandlerFunc(s.houseH.Create)))
	mux.HandleFunc("GET /api/houses", s.houseH.List)
	mux.HandleFunc("GET /api/houses/{id}", s.houseH.Get)
	mux.Handle("PUT /api/houses/{id}/period", middleware.RequireStaff(http.HandlerFunc(s.houseH.SetPeriod)))
	mux.Handle("DELETE /api/houses/{id}", middleware.RequireStaff(http.HandlerFunc(s.houseH.Delete)))

	// Chore lifecycle
	mux.Handle("POST /api/chores", middleware.RequireStaff(http.HandlerFunc(s.choreH.Create)))
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.Handle("PUT /api/chores/{id}", middleware.RequireStaff(http.HandlerFunc(s.choreH.Update)))
	mux.Handle("DELETE /api/chores/{id}", middleware.RequireStaff(http.HandlerFunc(s.choreH.Delete)))
	mux.HandleFunc("POST /api/chores/{id}/submit", s.choreH.Submit)
	mux.Handle("POST /api/chores/{id}/review", middleware.RequireStaff(http.HandlerFunc(s.choreH.Review)))
	mux.HandleFunc("GET /api/chores/{id}/photo", s.choreH.Photo)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub))
}
