package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gganddabbiya/trendix-ai-server/internal/store"
	"github.com/gganddabbiya/trendix-ai-server/pkg/trend"
)

// Server provides the HTTP API.
type Server struct {
	store  store.Store
	engine *trend.Engine
	log    zerolog.Logger
	port   int

	defaultPlatform string
	velocityDays    int
}

// New creates a new HTTP server.
func New(s store.Store, engine *trend.Engine, port int, defaultPlatform string, velocityDays int, log zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	if velocityDays <= 0 {
		velocityDays = 1
	}
	return &Server{
		store:           s,
		engine:          engine,
		log:             log,
		port:            port,
		defaultPlatform: defaultPlatform,
		velocityDays:    velocityDays,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/featured", s.handleFeatured)
	mux.HandleFunc("/api/v1/surge", s.handleSurge)
	mux.HandleFunc("/api/v1/categories", s.handleCategories)
	mux.HandleFunc("/api/v1/categories/videos", s.handleCategoryVideos)
	mux.HandleFunc("/api/v1/videos/history", s.handleHistory)
	mux.HandleFunc("/api/v1/chat/trends", s.handleChat)

	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// platform resolves the request's platform filter, falling back to the
// configured default.
func (s *Server) platform(r *http.Request) string {
	if p := r.URL.Query().Get("platform"); p != "" {
		return p
	}
	return s.defaultPlatform
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	featured, err := s.engine.GetFeatured(r.Context(), trend.FeaturedOptions{
		Platform:     s.platform(r),
		Query:        r.URL.Query().Get("query"),
		LimitPopular: intParam(r, "limit_popular", 5),
		LimitRising:  intParam(r, "limit_rising", 5),
		VelocityDays: intParam(r, "velocity_days", s.velocityDays),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("featured feed failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": featured})
}

func (s *Server) handleSurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	items, err := s.engine.SurgeRanking(r.Context(), trend.SurgeOptions{
		Platform:     s.platform(r),
		Limit:        intParam(r, "limit", 30),
		Days:         intParam(r, "days", 3),
		VelocityDays: intParam(r, "velocity_days", s.velocityDays),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("surge ranking failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	trends, err := s.store.HotCategoryTrends(r.Context(), s.platform(r), intParam(r, "limit", 20))
	if err != nil {
		s.log.Error().Err(err).Msg("category trends failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  trends,
		"count": len(trends),
	})
}

func (s *Server) handleCategoryVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	categoryID, err := strconv.Atoi(r.URL.Query().Get("category_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}

	items, err := s.engine.VideosByCategory(r.Context(), trend.CategoryOptions{
		CategoryID: categoryID,
		Platform:   s.platform(r),
		Limit:      intParam(r, "limit", 20),
		Days:       intParam(r, "days", 0),
	})
	if err != nil {
		s.log.Error().Err(err).Int("category_id", categoryID).Msg("category videos failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "video_id is required"})
		return
	}

	rows, err := s.store.SnapshotHistory(r.Context(), videoID, s.platform(r), intParam(r, "days", 7))
	if err != nil {
		s.log.Error().Err(err).Str("video_id", videoID).Msg("snapshot history failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  rows,
		"count": len(rows),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Messages []trend.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	answer, err := s.engine.AnswerWithTrends(r.Context(), req.Messages, trend.ChatOptions{
		Platform:     s.platform(r),
		VelocityDays: s.velocityDays,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("chat answer failed")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": answer})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
