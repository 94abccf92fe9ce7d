package generate

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		in      string
		want    Tone
		wantErr bool
	}{
		{"Supportive", ToneSupportive, false},
		{"Neutral Objective", ToneNeutralObjective, false},
		{"Psychological", TonePsychological, false},
		{"supportive", "", true},
		{"", "", true},
		{"Angry", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTone(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTone(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTone(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Cause
	}{
		{fmt.Errorf("googleapi: Error 429: Resource has been exhausted"), CauseQuota},
		{fmt.Errorf("rpc error: code = RESOURCE_EXHAUSTED desc = quota exceeded"), CauseQuota},
		{fmt.Errorf("You exceeded your current quota"), CauseQuota},
		{fmt.Errorf("googleapi: Error 503: Service Unavailable"), CauseTransient},
		{fmt.Errorf("Post \"https://x\": dial tcp: connection refused"), CauseTransient},
		{fmt.Errorf("context deadline exceeded (Client.Timeout exceeded)"), CauseTransient},
		{fmt.Errorf("invalid argument"), CauseUnknown},
		{nil, CauseUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	inner := fmt.Errorf("googleapi: Error 429: quota")
	err := wrapErr("generate", inner)

	if !IsQuota(err) {
		t.Error("expected IsQuota to be true")
	}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to match errors.Is")
	}

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatal("expected *Error")
	}
	if ge.Op != "generate" {
		t.Errorf("unexpected op %q", ge.Op)
	}
}

func TestChatSystemPromptMentionsTone(t *testing.T) {
	for _, tone := range []Tone{ToneSupportive, ToneNeutralObjective, TonePsychological} {
		p := chatSystemPrompt(tone)
		if !strings.Contains(p, string(tone)) {
			t.Errorf("chat prompt for %q does not mention the tone", tone)
		}
	}
}

func TestProactivePromptEmbedsLabel(t *testing.T) {
	p := ProactivePrompt("Sangat Sedih")
	if !strings.Contains(p, "Sangat Sedih") {
		t.Errorf("proactive prompt missing mood label: %q", p)
	}
}
