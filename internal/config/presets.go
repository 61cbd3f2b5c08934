package config

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type presetNames []Preset

func (p presetNames) String(i int) string { return p[i].Name }
func (p presetNames) Len() int            { return len(p) }

// MatchPresets returns the presets whose names fuzzily match query, best
// match first. An empty query returns every preset in order.
func MatchPresets(presets []Preset, query string) []Preset {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]Preset(nil), presets...)
	}
	matches := fuzzy.FindFrom(query, presetNames(presets))
	out := make([]Preset, 0, len(matches))
	for _, m := range matches {
		out = append(out, presets[m.Index])
	}
	return out
}

// FindPreset returns the best fuzzy match for query.
func FindPreset(presets []Preset, query string) (Preset, bool) {
	if strings.TrimSpace(query) == "" {
		return Preset{}, false
	}
	matches := MatchPresets(presets, query)
	if len(matches) == 0 {
		return Preset{}, false
	}
	return matches[0], true
}
