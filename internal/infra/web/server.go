package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-catalog-bot/internal/config"
	"telegram-catalog-bot/internal/usecase"
)

// Server exposes the read-only admin API next to the bot: a health probe,
// the Prometheus scrape endpoint and an aggregated stats view guarded by
// bearer auth.
type Server struct {
	httpServer *http.Server
	auth       *AuthManager
	apiKey     string
	log        *zerolog.Logger

	userUC      usecase.UserUseCase
	accessUC    usecase.AccessUseCase
	catalogUC   usecase.CatalogUseCase
	broadcastUC usecase.BroadcastUseCase
	pollUC      usecase.PollUseCase
}

func NewServer(
	cfg *config.WebConfig,
	userUC usecase.UserUseCase,
	accessUC usecase.AccessUseCase,
	catalogUC usecase.CatalogUseCase,
	broadcastUC usecase.BroadcastUseCase,
	pollUC usecase.PollUseCase,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	s := &Server{
		auth:        NewAuthManager(cfg.JWTSecret, 24*time.Hour),
		apiKey:      cfg.APIKey,
		log:         &webLog,
		userUC:      userUC,
		accessUC:    accessUC,
		catalogUC:   catalogUC,
		broadcastUC: broadcastUC,
		pollUC:      pollUC,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/stats", s.handleStats)
		})
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("admin api listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type loginRequest struct {
	Key string `json:"key"`
}

// handleLogin trades the configured admin key for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin api key is not configured")
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Key != s.apiKey {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("token mint failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statsResponse struct {
	Users          int            `json:"users"`
	Groups         int            `json:"groups"`
	UnusedCodes    int            `json:"unused_codes"`
	RedeemedCodes  int            `json:"redeemed_codes"`
	Broadcasts     int            `json:"broadcasts"`
	Polls          int            `json:"polls"`
	CatalogViews   int            `json:"catalog_views"`
	CategoryViews  map[string]int `json:"category_views"`
	CatalogUpdated string         `json:"catalog_updated,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.userUC.Count(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}
	groups, err := s.accessUC.ListGroups(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}
	fresh, err := s.accessUC.ListCodes(ctx, false)
	if err != nil {
		s.internalError(w, err)
		return
	}
	used, err := s.accessUC.ListCodes(ctx, true)
	if err != nil {
		s.internalError(w, err)
		return
	}
	broadcasts, err := s.broadcastUC.List(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}
	polls, err := s.pollUC.List(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}
	catalog, err := s.catalogUC.Stats(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Users:          users,
		Groups:         len(groups),
		UnusedCodes:    len(fresh),
		RedeemedCodes:  len(used),
		Broadcasts:     len(broadcasts),
		Polls:          len(polls),
		CatalogViews:   catalog.TotalViews,
		CategoryViews:  catalog.CategoryViews,
		CatalogUpdated: catalog.LastUpdated,
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("stats aggregation failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
