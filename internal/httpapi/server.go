// Package httpapi is the HTTP and WebSocket surface: the urgent-support
// panic endpoint, text chat, synthesis, the mood journal, and the event feed
// that pushes turn/state/mood events to UI clients.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/internal/config"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/journal"
	"github.com/curhatin/curhatin/internal/synth"
	"github.com/curhatin/curhatin/internal/transcript"
	"github.com/curhatin/curhatin/pkg/protocol"
)

// Generator produces text replies. Implemented by generate.Client.
type Generator interface {
	Generate(ctx context.Context, userText string, tone generate.Tone, history []generate.Turn) (string, error)
	UrgentSupport(ctx context.Context, userInput string) (string, error)
	FriendScript(ctx context.Context, topic string) (string, error)
}

// Synthesizer converts text to audio. Implemented by the synth retrier.
type Synthesizer interface {
	Synthesize(ctx context.Context, content string, opts synth.Options) (*synth.Result, error)
}

// DialogSynthesizer voices a two-speaker script. Implemented by
// synth.GeminiProvider; nil disables the friend-chat endpoint.
type DialogSynthesizer interface {
	SynthesizeDialog(ctx context.Context, script string, speakers []synth.SpeakerVoice) (*synth.Result, error)
}

// TranscriptReader lists stored conversations. Implemented by
// transcript.Store; nil disables the session endpoints.
type TranscriptReader interface {
	Sessions(limit int) ([]transcript.Session, error)
	Messages(sessionID string) ([]transcript.Message, error)
}

// Server hosts the API.
type Server struct {
	cfg     config.ServerConfig
	gen     Generator
	syn     Synthesizer
	dialog  DialogSynthesizer
	journal *journal.Store
	events  *bus.Bus
	limiter *RateLimiter

	transcripts TranscriptReader // may be nil

	httpSrv *http.Server
}

// NewServer assembles the API server. journal and events are required; gen,
// syn and dialog may be nil, disabling the endpoints that need them.
func NewServer(cfg config.ServerConfig, gen Generator, syn Synthesizer, dialog DialogSynthesizer, js *journal.Store, events *bus.Bus) *Server {
	s := &Server{
		cfg:     cfg,
		gen:     gen,
		syn:     syn,
		dialog:  dialog,
		journal: js,
		events:  events,
		limiter: NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/provide-urgent-support", s.guard(s.handleUrgentSupport))
	mux.HandleFunc("/api/chat", s.guard(s.handleChat))
	mux.HandleFunc("/api/synthesize", s.guard(s.handleSynthesize))
	mux.HandleFunc("/api/friend-chat", s.guard(s.handleFriendChat))
	mux.HandleFunc("/api/journal/mood", s.guard(s.handleLogMood))
	mux.HandleFunc("/api/journal", s.guard(s.handleJournal))
	mux.HandleFunc("/api/affirmation", s.guard(s.handleAffirmation))
	mux.HandleFunc("/api/sessions", s.guard(s.handleSessions))
	mux.HandleFunc("/api/sessions/", s.guard(s.handleSessionMessages))
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetTranscripts attaches the transcript store, enabling the session
// endpoints.
func (s *Server) SetTranscripts(ts TranscriptReader) {
	s.transcripts = ts
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.cfg.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains connections and notifies WS clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Publish(protocol.EventShutdown, nil)
	return s.httpSrv.Shutdown(ctx)
}

// guard wraps a handler with auth, rate limiting, and a request body cap.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "invalid authentication")
			return
		}
		key := r.RemoteAddr
		if token := bearerToken(r); token != "" {
			key = "token:" + token
		}
		if !s.limiter.Allow(key) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		const maxBodySize = 1 << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AuthToken == "" {
		return true
	}
	provided := bearerToken(r)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.AuthToken)) == 1
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

// writeError emits the {"error": "..."} shape all endpoints share.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
