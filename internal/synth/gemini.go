package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/wav"
)

const (
	geminiDefaultBase  = "https://generativelanguage.googleapis.com"
	geminiDefaultModel = "gemini-2.5-flash-preview-tts"

	// Prebuilt Gemini voices for the two user-facing settings.
	voiceNameFemale = "Kore"
	voiceNameMale   = "Algenib"
)

// GeminiProvider implements TTS via the Gemini generateContent API with an
// AUDIO response modality. The API returns raw 24kHz 16-bit mono PCM.
type GeminiProvider struct {
	apiKey    string
	apiBase   string
	model     string
	timeoutMs int
	client    *http.Client
}

// GeminiConfig configures the Gemini TTS provider.
type GeminiConfig struct {
	APIKey    string
	APIBase   string
	Model     string
	TimeoutMs int
}

// NewGeminiProvider creates a Gemini TTS provider.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		timeoutMs: cfg.TimeoutMs,
	}
	if p.apiBase == "" {
		p.apiBase = geminiDefaultBase
	}
	if p.model == "" {
		p.model = geminiDefaultModel
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	p.client = &http.Client{Timeout: time.Duration(p.timeoutMs) * time.Millisecond}
	return p
}

func (p *GeminiProvider) Name() string { return "gemini" }

// VoiceName maps the user-facing voice setting to the provider voice ID.
func VoiceName(v Voice) string {
	if v == VoiceMale {
		return voiceNameMale
	}
	return voiceNameFemale
}

// Synthesize converts text (or markup) to a WAV clip.
func (p *GeminiProvider) Synthesize(ctx context.Context, content string, opts Options) (*Result, error) {
	if opts.Format == FormatMarkup {
		content = WrapMarkup(content)
	}

	speechConfig := map[string]interface{}{
		"voiceConfig": map[string]interface{}{
			"prebuiltVoiceConfig": map[string]interface{}{
				"voiceName": VoiceName(opts.Voice),
			},
		},
	}
	return p.generateAudio(ctx, content, speechConfig)
}

// SynthesizeDialog converts a multi-speaker script ("Name: line" rows) to a
// single WAV clip with one voice per speaker.
func (p *GeminiProvider) SynthesizeDialog(ctx context.Context, script string, speakers []SpeakerVoice) (*Result, error) {
	configs := make([]map[string]interface{}, 0, len(speakers))
	for _, s := range speakers {
		configs = append(configs, map[string]interface{}{
			"speaker": s.Speaker,
			"voiceConfig": map[string]interface{}{
				"prebuiltVoiceConfig": map[string]interface{}{
					"voiceName": VoiceName(s.Voice),
				},
			},
		})
	}
	speechConfig := map[string]interface{}{
		"multiSpeakerVoiceConfig": map[string]interface{}{
			"speakerVoiceConfigs": configs,
		},
	}
	return p.generateAudio(ctx, script, speechConfig)
}

func (p *GeminiProvider) generateAudio(ctx context.Context, content string, speechConfig map[string]interface{}) (*Result, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": content}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
			"speechConfig":       speechConfig,
		},
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.apiBase, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create gemini tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Cause: generate.Classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("gemini tts error %d: %s", resp.StatusCode, string(errBody))
		return nil, &Error{Provider: p.Name(), Cause: causeForStatus(resp.StatusCode), Err: err}
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini tts response: %w", err)
	}

	pcmB64 := parsed.audioData()
	if pcmB64 == "" {
		return nil, &Error{Provider: p.Name(), Cause: generate.CauseUnknown,
			Err: fmt.Errorf("no audio media returned from the model")}
	}

	pcm, err := base64.StdEncoding.DecodeString(pcmB64)
	if err != nil {
		return nil, fmt.Errorf("decode gemini tts audio: %w", err)
	}

	audio, err := wav.Encode(pcm, wav.DefaultFormat)
	if err != nil {
		return nil, fmt.Errorf("wrap gemini tts audio: %w", err)
	}

	return &Result{Audio: audio, MimeType: "audio/wav"}, nil
}

func causeForStatus(status int) generate.Cause {
	switch {
	case status == http.StatusTooManyRequests:
		return generate.CauseQuota
	case status >= 500:
		return generate.CauseTransient
	default:
		return generate.CauseUnknown
	}
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *geminiResponse) audioData() string {
	for _, c := range r.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData.Data != "" {
				return part.InlineData.Data
			}
		}
	}
	return ""
}
