package interval_test

import (
	"testing"

	"go.llib.dev/spanjoin/pkg/interval"

	"go.llib.dev/testcase/assert"
)

func TestClassify(t *testing.T) {
	for name, tc := range map[string]struct {
		X, Y interval.Interval[struct{}]
		Exp  interval.Relation
	}{
		"disjoint":            {X: interval.Span(0, 1), Y: interval.Span(3, 4), Exp: interval.Disjoint},
		"equal":               {X: interval.Span(2, 6), Y: interval.Span(2, 6), Exp: interval.Equal},
		"contains":            {X: interval.Span(0, 10), Y: interval.Span(2, 3), Exp: interval.Contains},
		"contains with edge":  {X: interval.Span(0, 10), Y: interval.Span(0, 3), Exp: interval.Contains},
		"within":              {X: interval.Span(4, 5), Y: interval.Span(0, 10), Exp: interval.Within},
		"within with edge":    {X: interval.Span(4, 10), Y: interval.Span(0, 10), Exp: interval.Within},
		"crossing":            {X: interval.Span(0, 5), Y: interval.Span(4, 8), Exp: interval.Crossing},
		"crossing from right": {X: interval.Span(4, 8), Y: interval.Span(0, 5), Exp: interval.Crossing},
		"touching":            {X: interval.Span(0, 2), Y: interval.Span(2, 5), Exp: interval.Crossing},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Exp, interval.Classify(tc.X, tc.Y))
		})
	}
}
