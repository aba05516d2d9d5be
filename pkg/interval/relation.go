package interval

// Relation describes how an interval x relates to an interval y.
type Relation string

const (
	Disjoint Relation = "disjoint"
	Equal    Relation = "equal"
	// Contains means x covers y entirely and they are not equal.
	Contains Relation = "contains"
	// Within means y covers x entirely and they are not equal.
	Within Relation = "within"
	// Crossing is a partial overlap, including two spans touching at a boundary.
	Crossing Relation = "crossing"
)

// Classify tells the relation of x to y.
func Classify[X, Y any](x Interval[X], y Interval[Y]) Relation {
	switch {
	case !Overlaps(x, y):
		return Disjoint
	case x.Begin == y.Begin && x.End == y.End:
		return Equal
	case x.Begin <= y.Begin && y.End <= x.End:
		return Contains
	case y.Begin <= x.Begin && x.End <= y.End:
		return Within
	default:
		return Crossing
	}
}
