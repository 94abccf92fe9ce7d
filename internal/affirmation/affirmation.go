// Package affirmation serves the daily affirmation shown on the home view.
package affirmation

import "time"

var affirmations = []string{
	"Kamu mampu melakukan hal-hal luar biasa.",
	"Perasaanmu valid. Ambil waktumu.",
	"Setiap hari adalah awal yang baru. Tarik napas dalam-dalam dan mulai lagi.",
	"Kamu lebih kuat dari yang kamu kira.",
	"Tidak apa-apa untuk tidak baik-baik saja. Kebaikan pada diri sendiri adalah kuncinya.",
	"Kamu sudah cukup, apa adanya.",
	"Potensimu tidak terbatas.",
	"Percayalah pada dirimu sendiri dan semua yang ada padamu.",
}

// ForDate returns the affirmation for a calendar day. The pick is
// deterministic per day so refreshing the view does not shuffle it.
func ForDate(t time.Time) string {
	day := t.Year()*1000 + t.YearDay()
	return affirmations[day%len(affirmations)]
}

// Today returns today's affirmation.
func Today() string {
	return ForDate(time.Now())
}
