package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const transcribePrompt = `Transkripsikan ucapan dalam audio berikut apa adanya, dalam bahasa aslinya. Balas HANYA dengan teks transkripsi, tanpa penjelasan atau tanda kutip. Jika tidak ada ucapan yang terdengar, balas dengan string kosong.`

// Transcribe converts a recorded WAV clip into text. An empty transcript is
// returned as "" with a nil error; the caller decides whether that counts as
// a failed turn.
func (c *Client) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	const op = "transcribe"
	if len(wavData) == 0 {
		return "", fmt.Errorf("%s: empty audio", op)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcribePrompt},
			{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: wavData}},
		},
	}}

	start := time.Now()
	res, err := c.genc.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", wrapErr(op, err)
	}

	text := strings.TrimSpace(extractText(res))
	slog.Debug("transcription completed", "model", c.model,
		"audio_bytes", len(wavData), "chars", len(text),
		"duration", time.Since(start))
	return text, nil
}
