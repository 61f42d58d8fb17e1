// Package ranking ranks every character of a universe against all others
// and streams one entry per character to a sink.
package ranking

import (
	"fmt"
	"strings"
)

// Match is one similar character with its score.
type Match struct {
	Character string  `json:"character"`
	Score     float64 `json:"score"`
}

// Entry is the ranking of one character: similar characters by descending
// score, every score > 0, at most cutoff long.
type Entry struct {
	Character string  `json:"character"`
	Similar   []Match `json:"similar"`
}

// Characters returns the similar characters in rank order.
func (e Entry) Characters() []string {
	out := make([]string, len(e.Similar))
	for i, m := range e.Similar {
		out[i] = m.Character
	}
	return out
}

// Line encodes the entry as "character;c1,c2,...\n". An entry with no
// similar characters encodes as "character;\n".
func (e Entry) Line() string {
	var sb strings.Builder
	sb.WriteString(e.Character)
	sb.WriteByte(';')
	for i, m := range e.Similar {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(m.Character)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// ParseLine decodes a ranking line. Scores are not part of the line format
// and come back as zero.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	character, list, ok := strings.Cut(line, ";")
	if !ok || character == "" {
		return Entry{}, fmt.Errorf("invalid ranking line %q", line)
	}
	e := Entry{Character: character}
	if list == "" {
		return e, nil
	}
	for _, c := range strings.Split(list, ",") {
		e.Similar = append(e.Similar, Match{Character: c})
	}
	return e, nil
}
