package factors_test

import (
	"errors"
	"testing"

	"getmoredone/internal/factors"
)

func TestWeightLookup(t *testing.T) {
	cases := []struct {
		factor factors.Factor
		label  string
		want   int
	}{
		{factors.Importance, "Critical", 20},
		{factors.Importance, "Low", 1},
		{factors.Urgency, "High", 10},
		{factors.Urgency, "Medium", 5},
		{factors.Size, "XL", 16},
		{factors.Size, "P", 0},
		{factors.Value, "S", 2},
		{factors.Value, "P", 0},
	}
	for _, c := range cases {
		got, err := factors.Weight(c.factor, c.label)
		if err != nil {
			t.Fatalf("Weight(%s,%s): %v", c.factor, c.label, err)
		}
		if got != c.want {
			t.Errorf("Weight(%s,%s) = %d, want %d", c.factor, c.label, got, c.want)
		}
	}
}

func TestWeightUnknownLabel(t *testing.T) {
	_, err := factors.Weight(factors.Importance, "XL")
	var ue factors.UnknownLabelError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownLabelError, got %v", err)
	}
	if ue.Label != "XL" {
		t.Errorf("unexpected label %q", ue.Label)
	}
}

func TestValidateMembership(t *testing.T) {
	if err := factors.Validate(factors.Size, 8); err != nil {
		t.Fatalf("8 is a valid size: %v", err)
	}
	if err := factors.Validate(factors.Size, 0); err != nil {
		t.Fatalf("0 (Parked) is a valid size: %v", err)
	}
	// importance has no zero label
	var ive factors.InvalidValueError
	if err := factors.Validate(factors.Importance, 0); !errors.As(err, &ive) {
		t.Fatalf("expected InvalidValueError for importance=0, got %v", err)
	}
	if err := factors.Validate(factors.Urgency, 7); !errors.As(err, &ive) {
		t.Fatalf("expected InvalidValueError for urgency=7, got %v", err)
	}
}

func TestScoreProduct(t *testing.T) {
	cases := []struct {
		i, u, s, v int
		want       int
	}{
		{20, 10, 8, 4, 6400},
		{20, 10, 0, 4, 0},
		{20, 10, 8, 0, 0},
		{1, 1, 2, 2, 4},
		{20, 20, 16, 16, 102400},
	}
	for _, c := range cases {
		got := factors.Score(c.i, c.u, c.s, c.v)
		if got != c.want {
			t.Errorf("Score(%d,%d,%d,%d) = %d, want %d", c.i, c.u, c.s, c.v, got, c.want)
		}
		// pure: repeated calls agree
		if again := factors.Score(c.i, c.u, c.s, c.v); again != got {
			t.Errorf("Score not deterministic: %d then %d", got, again)
		}
	}
}

func TestScoreResolvedNilSinks(t *testing.T) {
	ten := 10
	if got := factors.ScoreResolved(&ten, &ten, nil, &ten); got != 0 {
		t.Errorf("nil factor should score 0, got %d", got)
	}
	if got := factors.ScoreResolved(nil, nil, nil, nil); got != 0 {
		t.Errorf("all-nil should score 0, got %d", got)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	if got := factors.Label(factors.Size, 16); got != "XL" {
		t.Errorf("Label(size,16) = %q", got)
	}
	if got := factors.Label(factors.Importance, 3); got != "" {
		t.Errorf("expected empty label for non-member, got %q", got)
	}
	labels := factors.Labels(factors.Urgency)
	want := []string{"Critical", "High", "Medium", "Low"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}
