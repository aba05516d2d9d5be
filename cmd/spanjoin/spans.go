package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/spanjoin/pkg/interval"
	"go.llib.dev/spanjoin/port/spanstore"
)

// Span is the JSON form of an input interval.
type Span struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
}

// readSpans reads a JSON array of spans from path.
func readSpans(path string) (_ []interval.Interval[Span], returnErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer errorkit.Finish(&returnErr, f.Close)

	var spans []Span
	if err := json.NewDecoder(f).Decode(&spans); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make([]interval.Interval[Span], 0, len(spans))
	for i, s := range spans {
		if s.End < s.Begin {
			return nil, fmt.Errorf("%s: span #%d [%d, %d]: %w", path, i, s.Begin, s.End, spanstore.ErrInvalidSpan)
		}
		out = append(out, interval.New(s.Begin, s.End, s))
	}
	return out, nil
}
