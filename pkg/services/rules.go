package services

// Rule pairs a label with the predicate that selects it.
type Rule[T any] struct {
	Label string
	Match func(T) bool
}

// DecisionList is an ordered set of rules: the first rule whose predicate
// holds decides the label. Lists are built with a trailing catch-all so
// Classify is total.
type DecisionList[T any] struct {
	rules    []Rule[T]
	fallback string
}

// NewDecisionList builds a list from rules in priority order. fallback is
// returned when no rule matches.
func NewDecisionList[T any](fallback string, rules ...Rule[T]) *DecisionList[T] {
	return &DecisionList[T]{rules: rules, fallback: fallback}
}

// Classify returns the label of the first matching rule, or the fallback.
func (d *DecisionList[T]) Classify(v T) string {
	label, _ := d.ClassifyIndex(v)
	return label
}

// ClassifyIndex also returns the position of the deciding rule, or -1 when
// the fallback was used.
func (d *DecisionList[T]) ClassifyIndex(v T) (string, int) {
	for i, r := range d.rules {
		if r.Match(v) {
			return r.Label, i
		}
	}
	return d.fallback, -1
}

// Labels returns every label the list can produce, rules first and the
// fallback last.
func (d *DecisionList[T]) Labels() []string {
	out := make([]string, 0, len(d.rules)+1)
	seen := make(map[string]bool, len(d.rules)+1)
	for _, r := range d.rules {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	if !seen[d.fallback] {
		out = append(out, d.fallback)
	}
	return out
}
