// Package generate is the client for the text generation provider (Gemini).
//
// It owns prompt framing for the three response tones, the short voice-mode
// variant, the urgent-support one-shot, and the two-persona friend script.
// The client performs a single request per call: retry policy lives with the
// caller (the synthesis client retries, generation does not).
package generate

import "fmt"

// Tone is the user-selected response style, passed through unchanged from
// the UI.
type Tone string

const (
	ToneSupportive       Tone = "Supportive"
	ToneNeutralObjective Tone = "Neutral Objective"
	TonePsychological    Tone = "Psychological"
)

// ParseTone validates a wire-format tone string.
func ParseTone(s string) (Tone, error) {
	switch Tone(s) {
	case ToneSupportive, ToneNeutralObjective, TonePsychological:
		return Tone(s), nil
	}
	return "", fmt.Errorf("unknown response style %q", s)
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the rolling conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// MaxHistoryTurns is the default bound on history entries sent with a
// generation request, keeping the prompt small. The configured historyTurns
// value overrides it.
const MaxHistoryTurns = 2

// chatSystemPrompt frames a full chat-mode reply for the given tone.
func chatSystemPrompt(tone Tone) string {
	return fmt.Sprintf(`Anda adalah asisten AI yang dirancang untuk memberikan dukungan dan bimbingan dalam Bahasa Indonesia.
Tujuan Anda adalah menghasilkan respons yang empatik, membantu, dan disesuaikan dengan kebutuhan pengguna serta gaya respons yang dipilih.

Gaya respons yang diminta: %s

Jika gaya responsnya Supportive, berikan empati dan dorongan.
Jika gaya responsnya Neutral Objective, berikan perspektif yang seimbang dan tidak bias.
Jika gaya responsnya Psychological, gunakan teknik pembingkaian ulang kognitif untuk membantu pengguna melihat situasinya dari sudut pandang lain.`, tone)
}

// voiceSystemPrompt frames a short reply suitable for speech.
func voiceSystemPrompt(tone Tone) string {
	return fmt.Sprintf(`Anda adalah teman AI yang empatik dan pendengar yang baik dalam sebuah panggilan suara. Tanggapi pengguna dalam Bahasa Indonesia.
Berikan respons yang singkat, suportif, dan terdengar alami untuk percakapan suara.
Fokus pada validasi perasaan mereka dan ajukan pertanyaan terbuka jika perlu. Hindari respons yang panjang dan kompleks.

Gaya respons yang diminta: %s`, tone)
}

const urgentSupportPrompt = `Anda adalah asisten AI yang dirancang untuk memberikan respons cepat dan menenangkan dalam Bahasa Indonesia kepada pengguna yang mengalami kepanikan atau tekanan. Tujuan Anda adalah membantu mereka tenang dan merasa didukung.

Balas dengan pesan singkat, empatik, dan meyakinkan. Fokus pada memberikan kenyamanan segera dan menyarankan mekanisme koping sederhana seperti pernapasan dalam atau fokus pada saat ini.`

const friendScriptPrompt = `Anda adalah penulis skenario untuk drama audio pendek.
Tulis skrip percakapan antara dua teman, Ami dan Budi, yang sedang mendiskusikan masalah yang dihadapi teman mereka (pengguna).

Persona:
- Ami: Sangat empatik, suportif, dan fokus pada validasi perasaan. Dia menawarkan kenyamanan dan perspektif yang lembut.
- Budi: Lebih analitis, praktis, dan fokus pada solusi. Dia menawarkan langkah-langkah konkret dan saran yang membangun.

Tulis setiap baris dialog dengan format "Nama: kalimat". Jangan tambahkan narasi lain.`

// ProactivePrompt composes the system-initiated message used when the user
// logs a mood in the journal.
func ProactivePrompt(moodLabel string) string {
	return fmt.Sprintf(`Saya baru saja mencatat perasaan saya di jurnal emosi: %q. Tanggapi catatan ini dengan singkat dan hangat, dan ajak saya bercerita lebih lanjut jika saya mau.`, moodLabel)
}
