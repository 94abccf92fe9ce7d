package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/curhatin/curhatin/internal/affirmation"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/journal"
	"github.com/curhatin/curhatin/internal/synth"
)

type urgentSupportRequest struct {
	UserInput string `json:"userInput"`
}

type urgentSupportResponse struct {
	ComfortingResponse string `json:"comfortingResponse"`
}

// handleUrgentSupport is the panic flow: one shot, no history, fixed calming
// prompt. Failures are a 500 with {"error": ...}.
func (s *Server) handleUrgentSupport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}

	var req urgentSupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, http.StatusBadRequest, "userInput is required")
		return
	}

	reply, err := s.gen.UrgentSupport(r.Context(), req.UserInput)
	if err != nil {
		slog.Error("urgent support failed", "error", err)
		writeError(w, http.StatusInternalServerError, "gagal mendapatkan respons dukungan")
		return
	}
	writeJSON(w, http.StatusOK, urgentSupportResponse{ComfortingResponse: reply})
}

type chatRequest struct {
	TextInput     string          `json:"textInput"`
	ResponseStyle string          `json:"responseStyle"`
	History       []generate.Turn `json:"history,omitempty"`
}

type chatResponse struct {
	ResponseText string `json:"responseText"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.gen == nil {
		writeError(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.TextInput) == "" {
		writeError(w, http.StatusBadRequest, "textInput is required")
		return
	}
	tone := generate.ToneSupportive
	if req.ResponseStyle != "" {
		var err error
		if tone, err = generate.ParseTone(req.ResponseStyle); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	reply, err := s.gen.Generate(r.Context(), req.TextInput, tone, req.History)
	if err != nil {
		slog.Error("chat generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "gagal menghasilkan respons")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{ResponseText: reply})
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`  // "female" (default) or "male"
	Format string `json:"format,omitempty"` // "text" (default) or "markup"
}

type synthesizeResponse struct {
	Media string `json:"media"` // WAV data URI
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.syn == nil {
		writeError(w, http.StatusServiceUnavailable, "synthesis is not configured")
		return
	}

	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	opts := synth.Options{Voice: synth.VoiceFemale, Format: req.Format}
	if req.Voice == string(synth.VoiceMale) {
		opts.Voice = synth.VoiceMale
	}

	result, err := s.syn.Synthesize(r.Context(), req.Text, opts)
	if err != nil {
		if synth.IsQuota(err) {
			writeError(w, http.StatusTooManyRequests, synth.ErrQuotaExhausted.Error())
			return
		}
		slog.Error("synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "gagal menghasilkan audio")
		return
	}
	writeJSON(w, http.StatusOK, synthesizeResponse{Media: result.DataURI()})
}

type friendChatRequest struct {
	Topic string `json:"topic"`
}

type friendChatResponse struct {
	Script string `json:"script"`
	Media  string `json:"media,omitempty"`
}

// handleFriendChat generates the Ami/Budi discussion script about the user's
// topic and voices it with two speakers. The script still comes back when
// audio fails; that mirrors the partial-result rule of the voice loop.
func (s *Server) handleFriendChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.gen == nil || s.dialog == nil {
		writeError(w, http.StatusServiceUnavailable, "friend chat is not configured")
		return
	}

	var req friendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	script, err := s.gen.FriendScript(r.Context(), req.Topic)
	if err != nil {
		slog.Error("friend script generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "gagal membuat percakapan")
		return
	}

	resp := friendChatResponse{Script: script}
	speakers := []synth.SpeakerVoice{
		{Speaker: "Ami", Voice: synth.VoiceFemale},
		{Speaker: "Budi", Voice: synth.VoiceMale},
	}
	if result, err := s.dialog.SynthesizeDialog(r.Context(), script, speakers); err != nil {
		slog.Warn("friend chat audio failed, returning script only", "error", err)
	} else {
		resp.Media = result.DataURI()
	}
	writeJSON(w, http.StatusOK, resp)
}

type logMoodRequest struct {
	Level int `json:"level"`
}

type logMoodResponse struct {
	Accepted bool   `json:"accepted"`
	Streak   int    `json:"streak"`
	Label    string `json:"label,omitempty"`
}

func (s *Server) handleLogMood(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req logMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	res, err := s.journal.LogMood(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, logMoodResponse{
		Accepted: res.Accepted,
		Streak:   res.Streak,
		Label:    journal.LevelLabel(req.Level),
	})
}

type journalResponse struct {
	Streak      int                  `json:"streak"`
	LoggedToday bool                 `json:"loggedToday"`
	Trend       []journal.TrendPoint `json:"trend"`
	Entries     []journal.Entry      `json:"entries"`
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, journalResponse{
		Streak:      s.journal.Streak(),
		LoggedToday: s.journal.LoggedToday(),
		Trend:       s.journal.Trend(7),
		Entries:     s.journal.Entries(),
	})
}

// handleSessions lists recent conversations, newest first.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, "transcripts are not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	sessions, err := s.transcripts.Sessions(limit)
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "gagal memuat riwayat percakapan")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// handleSessionMessages returns the stored messages of one session.
func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, "transcripts are not configured")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	messages, err := s.transcripts.Messages(id)
	if err != nil {
		slog.Error("load session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "gagal memuat percakapan")
		return
	}
	if len(messages) == 0 {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (s *Server) handleAffirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"affirmation": affirmation.Today()})
}
