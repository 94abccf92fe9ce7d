package synth

import "strings"

// WrapMarkup turns raw pacing/emphasis directive content into a well-formed
// markup document. Callers hand over fragments like
// `halo <break time="300ms"/> apa kabar`; the provider wants a single
// <speak> root element.
func WrapMarkup(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<speak") && strings.HasSuffix(trimmed, "</speak>") {
		return trimmed
	}
	return "<speak>" + trimmed + "</speak>"
}
