// Package factors holds the four bounded priority scales and the score rule.
package factors

import (
	"fmt"
	"sort"
)

type Factor string

const (
	Importance Factor = "importance"
	Urgency    Factor = "urgency"
	Size       Factor = "size"
	Value      Factor = "value"
)

// Parked is the zero-weight sentinel on the Size/Value scales. A parked item
// always scores 0 and sorts after every positively-scored item.
const Parked = 0

var scales = map[Factor]map[string]int{
	Importance: {"Critical": 20, "High": 10, "Medium": 5, "Low": 1},
	Urgency:    {"Critical": 20, "High": 10, "Medium": 5, "Low": 1},
	Size:       {"XL": 16, "L": 8, "M": 4, "S": 2, "P": Parked},
	Value:      {"XL": 16, "L": 8, "M": 4, "S": 2, "P": Parked},
}

// UnknownLabelError reports a label outside a factor's scale.
type UnknownLabelError struct {
	Factor Factor
	Label  string
}

func (e UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown %s label %q", e.Factor, e.Label)
}

// InvalidValueError reports a raw weight outside a factor's allowed set.
type InvalidValueError struct {
	Factor Factor
	Value  int
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s value %d", e.Factor, e.Value)
}

// Weight maps a label to its integer weight for the given factor.
func Weight(f Factor, label string) (int, error) {
	scale, ok := scales[f]
	if !ok {
		return 0, UnknownLabelError{Factor: f, Label: label}
	}
	w, ok := scale[label]
	if !ok {
		return 0, UnknownLabelError{Factor: f, Label: label}
	}
	return w, nil
}

// Validate checks that a raw weight is a member of the factor's allowed set.
func Validate(f Factor, weight int) error {
	scale, ok := scales[f]
	if !ok {
		return InvalidValueError{Factor: f, Value: weight}
	}
	for _, w := range scale {
		if w == weight {
			return nil
		}
	}
	return InvalidValueError{Factor: f, Value: weight}
}

// Label returns the label for a weight, or the empty string if none matches.
func Label(f Factor, weight int) string {
	for label, w := range scales[f] {
		if w == weight {
			return label
		}
	}
	return ""
}

// Labels lists a factor's labels in descending weight order.
func Labels(f Factor) []string {
	scale := scales[f]
	labels := make([]string, 0, len(scale))
	for label := range scale {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return scale[labels[i]] > scale[labels[j]] })
	return labels
}

// Score computes the priority score as the product of the four factor
// weights. A zero anywhere (Parked, or an unresolved factor passed as 0)
// forces the score to 0, which sinks the item in default orderings.
func Score(importance, urgency, size, value int) int {
	for _, w := range []int{importance, urgency, size, value} {
		if w == 0 {
			return 0
		}
	}
	return importance * urgency * size * value
}

// ScoreResolved scores possibly-unresolved factors: nil counts as 0.
func ScoreResolved(importance, urgency, size, value *int) int {
	return Score(deref(importance), deref(urgency), deref(size), deref(value))
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
