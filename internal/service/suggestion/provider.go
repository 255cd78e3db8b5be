package suggestion

import (
	"regexp"
	"strings"
)

var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

var byEmotion = map[string][]string{
	"happy": {
		"Consider journaling about this positive experience",
		"Share this joy with someone important to you",
	},
	"sad": {
		"Try the 5-4-3-2-1 grounding technique",
		"A short walk might help clear your mind",
	},
	"angry": {
		"Try deep breathing for 60 seconds",
		"Write down your thoughts to process them",
	},
}

var fallback = []string{
	"Take a moment to reflect on this experience",
	"Consider discussing this with someone you trust",
}

// For returns coping suggestions for an exact emotion tag, or the generic pair.
func For(emotion string) []string {
	if s, ok := byEmotion[emotion]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), fallback...)
}

// WithActivities appends the activity lines of an AI reply after the table entries
// for emotion. Bullet and numbering prefixes are stripped and duplicates dropped.
func WithActivities(emotion, reply string) []string {
	out := For(emotion)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[s] = true
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
