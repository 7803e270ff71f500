package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/service"
	"go.uber.org/zap"
)

// QueueReader exposes dispatcher state
type QueueReader interface {
	Status(channelID string) service.ChannelStatus
	Statuses() []service.ChannelStatus
}

// CooldownStore reads and records channel cooldowns
type CooldownStore interface {
	Record(channelID string, d time.Duration, source domain.CooldownSource)
	Remaining(channelID string) time.Duration
	Snapshot() []domain.CooldownRecord
}

// SettingsStore reads and updates the live settings
type SettingsStore interface {
	Current() domain.Settings
	Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
}

// HistoryReader exposes the recent message history
type HistoryReader interface {
	Last(n int) []domain.HistoryEntry
}

// Server provides the loopback control API used by the CLI and the MCP server
type Server struct {
	queue     QueueReader
	cooldowns CooldownStore
	settings  SettingsStore
	history   HistoryReader
	logger    *zap.Logger

	server *http.Server
	port   int
}

// Cooldown is the wire form of an active cooldown
type Cooldown struct {
	ChannelID   string    `json:"channel_id"`
	Source      string    `json:"source"`
	EndTime     time.Time `json:"end_time"`
	DurationMs  int64     `json:"duration_ms"`
	RemainingMs int64     `json:"remaining_ms"`
}

// SlowModeRequest reports a slow-mode window for a channel
type SlowModeRequest struct {
	Seconds float64 `json:"seconds"`
}

// NewServer creates a new API server
func NewServer(queue QueueReader, cooldowns CooldownStore, settings SettingsStore, history HistoryReader, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		queue:     queue,
		cooldowns: cooldowns,
		settings:  settings,
		history:   history,
		logger:    logger.Named("api"),
		port:      port,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Queue status
	mux.HandleFunc("/api/queue", s.handleQueue)
	mux.HandleFunc("/api/queue/", s.handleQueueItem)

	// Cooldowns
	mux.HandleFunc("/api/cooldowns", s.handleCooldowns)
	mux.HandleFunc("/api/cooldowns/", s.handleCooldownItem)

	// History
	mux.HandleFunc("/api/history", s.handleHistory)

	// Settings
	mux.HandleFunc("/api/settings", s.handleSettings)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start serves the API on 127.0.0.1 until Stop is called
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.Int("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

// ============ Queue Handlers ============

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{"channels": s.queue.Statuses()})
}

func (s *Server) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	channelID := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if channelID == "" || strings.Contains(channelID, "/") {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.queue.Status(channelID))
}

// ============ Cooldown Handlers ============

func (s *Server) handleCooldowns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records := s.cooldowns.Snapshot()
	out := make([]Cooldown, 0, len(records))
	for _, rec := range records {
		out = append(out, Cooldown{
			ChannelID:   rec.ChannelID,
			Source:      string(rec.Source),
			EndTime:     rec.EndTime,
			DurationMs:  rec.Duration.Milliseconds(),
			RemainingMs: s.cooldowns.Remaining(rec.ChannelID).Milliseconds(),
		})
	}
	s.writeJSON(w, map[string]interface{}{"cooldowns": out})
}

// handleCooldownItem lets an external slow-mode observer report a window
func (s *Server) handleCooldownItem(w http.ResponseWriter, r *http.Request) {
	channelID := strings.TrimPrefix(r.URL.Path, "/api/cooldowns/")
	if channelID == "" || strings.Contains(channelID, "/") {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{
			"channel_id":   channelID,
			"in_cooldown":  s.cooldowns.Remaining(channelID) > 0,
			"remaining_ms": s.cooldowns.Remaining(channelID).Milliseconds(),
		})

	case http.MethodPost:
		var req SlowModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Seconds <= 0 {
			http.Error(w, "seconds must be positive", http.StatusBadRequest)
			return
		}
		d := time.Duration(req.Seconds * float64(time.Second))
		s.cooldowns.Record(channelID, d, domain.CooldownSourceSlowMode)
		s.writeJSON(w, map[string]interface{}{"success": true, "remaining_ms": d.Milliseconds()})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ History Handlers ============

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := domain.DefaultHistoryLength
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries := s.history.Last(limit)
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	s.writeJSON(w, map[string]interface{}{"messages": entries})
}

// ============ Settings Handlers ============

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.settings.Current().Redacted())

	case http.MethodPut, http.MethodPatch:
		var patch domain.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		updated, err := s.settings.Update(r.Context(), patch)
		if err != nil {
			s.logger.Error("settings update failed", zap.Error(err))
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, updated.Redacted())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
