package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"famledger/internal/auth"
	"famledger/internal/config"
	"famledger/internal/family"
	"famledger/internal/handler"
	"famledger/internal/middleware"
	"famledger/internal/model"
	"famledger/internal/store"
	ws "famledger/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	familyH      *handler.FamilyHandler
	budgetH      *handler.BudgetHandler
	goalH        *handler.GoalHandler
	transactionH *handler.TransactionHandler
	wsHandler    http.HandlerFunc
	userStore    *store.UserStore
	issuer       *auth.TokenIssuer
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	familyStore := store.NewFamilyStore(db)
	budgetStore := store.NewBudgetStore(db)
	goalStore := store.NewGoalStore(db)
	transactionStore := store.NewTransactionStore(db)

	familySvc := family.NewService(
		familyStore, budgetStore, goalStore, transactionStore,
		hub, logger.With("component", "family"),
	)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	authenticate := func(token string) (int64, error) {
		claims, err := issuer.Parse(token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}

	// Family room subscriptions are only for ACCEPTED members.
	canJoin := func(userID, familyID int64) (bool, error) {
		m, err := familyStore.GetMember(familyID, userID)
		if err != nil {
			return false, err
		}
		return m != nil && m.Status == model.StatusAccepted, nil
	}

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, issuer, logger.With("component", "auth")),
		familyH:      handler.NewFamilyHandler(familySvc, logger.With("component", "family_handler")),
		budgetH:      handler.NewBudgetHandler(familySvc, logger.With("component", "budget_handler")),
		goalH:        handler.NewGoalHandler(familySvc, logger.With("component", "goal_handler")),
		transactionH: handler.NewTransactionHandler(transactionStore, logger.With("component", "transaction_handler")),
		wsHandler:    ws.HandleWebSocket(hub, authenticate, canJoin, logger.With("component", "websocket")),
		userStore:    userStore,
		issuer:       issuer,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /ws", s.wsHandler)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.issuer, s.userStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
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
	// Personal ledger routes
	mux.HandleFunc("GET /api/transactions", s.transactionH.List)
	mux.HandleFunc("POST /api/transactions", s.transactionH.Create)
	mux.HandleFunc("DELETE /api/transactions/{transactionID}", s.transactionH.Delete)

	// Family membership routes
	mux.HandleFunc("POST /api/family", s.familyH.Create)
	mux.HandleFunc("POST /api/family/join", s.familyH.Join)
	mux.HandleFunc("GET /api/family/requests", s.familyH.ListRequests)
	mux.HandleFunc("POST /api/family/requests/{memberID}/accept", s.familyH.AcceptRequest)
	mux.HandleFunc("POST /api/family/requests/{memberID}/reject", s.familyH.RejectRequest)
	mux.HandleFunc("GET /api/family/my-family", s.familyH.MyFamily)
	mux.HandleFunc("PUT /api/family/my-permissions", s.familyH.UpdateMyPermissions)
	mux.HandleFunc("PUT /api/family/members/{memberID}/permissions", s.familyH.UpdateMemberPermissions)
	mux.HandleFunc("DELETE /api/family/members/{memberID}", s.familyH.RemoveMember)
	mux.HandleFunc("POST /api/family/leave", s.familyH.Leave)
	mux.HandleFunc("DELETE /api/family/{familyID}", s.familyH.Delete)

	// Shared budget routes
	mux.HandleFunc("GET /api/family/{familyID}/budgets", s.budgetH.List)
	mux.HandleFunc("POST /api/family/{familyID}/budgets", s.budgetH.Create)
	mux.HandleFunc("PUT /api/family/{familyID}/budgets/{budgetID}", s.budgetH.Update)
	mux.HandleFunc("DELETE /api/family/{familyID}/budgets/{budgetID}", s.budgetH.Delete)

	// Shared goal routes
	mux.HandleFunc("GET /api/family/{familyID}/goals", s.goalH.List)
	mux.HandleFunc("POST /api/family/{familyID}/goals", s.goalH.Create)
	mux.HandleFunc("PUT /api/family/{familyID}/goals/{goalID}", s.goalH.Update)
	mux.HandleFunc("DELETE /api/family/{familyID}/goals/{goalID}", s.goalH.Delete)
	mux.HandleFunc("POST /api/family/{familyID}/goals/{goalID}/contribute", s.goalH.Contribute)
	mux.HandleFunc("GET /api/family/{familyID}/goals/{goalID}/contributions", s.goalH.ListContributions)
}
