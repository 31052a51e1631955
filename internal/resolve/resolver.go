// Package resolve merges system defaults, per-who defaults, and explicit
// user input into a fully-resolved set of item fields.
//
// Every draft field is a pointer paired with a Set flag so that "user
// explicitly cleared this" and "user never touched this" stay
// distinguishable for the whole edit session. Resolution never fails; a
// field with no value anywhere resolves to nil and the scorer sinks it.
package resolve

import (
	"time"

	"getmoredone/internal/dates"
	"getmoredone/internal/domain"
)

// Draft carries the fields the user actually typed or selected this save.
// A nil pointer with Set=true means the user explicitly cleared the field;
// Set=false means the field was never touched and is eligible for defaults.
type Draft struct {
	Importance    *int
	ImportanceSet bool

	Urgency    *int
	UrgencySet bool

	Size    *int
	SizeSet bool

	Value    *int
	ValueSet bool

	Group    *string
	GroupSet bool

	Category    *string
	CategorySet bool

	PlannedMinutes    *int
	PlannedMinutesSet bool

	StartDate    *string
	StartDateSet bool

	DueDate    *string
	DueDateSet bool
}

// Resolved is the outcome of precedence merging. All fields remain optional.
type Resolved struct {
	Importance     *int
	Urgency        *int
	Size           *int
	Value          *int
	Group          *string
	Category       *string
	PlannedMinutes *int
	StartDate      *string
	DueDate        *string
}

// Calendar controls weekend handling for offset-computed dates.
type Calendar struct {
	IncludeSaturday bool
	IncludeSunday   bool
}

// Apply merges the draft against the who-scoped and system profiles with
// precedence explicit > who-default > system-default > nil. Date fields left
// unset receive the winning profile's day offsets relative to today. Either
// profile may be nil.
//
// The same call serves the who-change re-apply path: the caller passes a
// draft whose Set flags cover exactly the fields touched this session, and
// every untouched field is re-defaulted from the new who's profiles.
func Apply(d Draft, who, system *domain.DefaultsProfile, today time.Time, cal Calendar) Resolved {
	r := Resolved{
		Importance:     pickInt(d.Importance, d.ImportanceSet, intField(who, system, func(p *domain.DefaultsProfile) *int { return p.Importance })),
		Urgency:        pickInt(d.Urgency, d.UrgencySet, intField(who, system, func(p *domain.DefaultsProfile) *int { return p.Urgency })),
		Size:           pickInt(d.Size, d.SizeSet, intField(who, system, func(p *domain.DefaultsProfile) *int { return p.Size })),
		Value:          pickInt(d.Value, d.ValueSet, intField(who, system, func(p *domain.DefaultsProfile) *int { return p.Value })),
		PlannedMinutes: pickInt(d.PlannedMinutes, d.PlannedMinutesSet, intField(who, system, func(p *domain.DefaultsProfile) *int { return p.PlannedMinutes })),
		Group:          pickString(d.Group, d.GroupSet, stringField(who, system, func(p *domain.DefaultsProfile) *string { return p.Group })),
		Category:       pickString(d.Category, d.CategorySet, stringField(who, system, func(p *domain.DefaultsProfile) *string { return p.Category })),
	}

	r.StartDate = pickString(d.StartDate, d.StartDateSet, nil)
	if r.StartDate == nil && !d.StartDateSet {
		r.StartDate = offsetDate(intField(who, system, func(p *domain.DefaultsProfile) *int { return p.StartOffsetDays }), today, cal)
	}
	r.DueDate = pickString(d.DueDate, d.DueDateSet, nil)
	if r.DueDate == nil && !d.DueDateSet {
		r.DueDate = offsetDate(intField(who, system, func(p *domain.DefaultsProfile) *int { return p.DueOffsetDays }), today, cal)
	}
	return r
}

// pickInt applies the precedence rule for one integer field. An explicitly
// set draft value always wins, including an explicit nil.
func pickInt(v *int, set bool, fallback *int) *int {
	if set {
		return copyInt(v)
	}
	return copyInt(fallback)
}

func pickString(v *string, set bool, fallback *string) *string {
	if set {
		return copyString(v)
	}
	return copyString(fallback)
}

// intField returns the who-default when present, else the system default.
func intField(who, system *domain.DefaultsProfile, get func(*domain.DefaultsProfile) *int) *int {
	if who != nil {
		if v := get(who); v != nil {
			return v
		}
	}
	if system != nil {
		return get(system)
	}
	return nil
}

func stringField(who, system *domain.DefaultsProfile, get func(*domain.DefaultsProfile) *string) *string {
	if who != nil {
		if v := get(who); v != nil {
			return v
		}
	}
	if system != nil {
		return get(system)
	}
	return nil
}

func offsetDate(offset *int, today time.Time, cal Calendar) *string {
	if offset == nil {
		return nil
	}
	d := dates.Increment(today, *offset, cal.IncludeSaturday, cal.IncludeSunday)
	d = dates.AdjustForward(d, cal.IncludeSaturday, cal.IncludeSunday)
	s := d.Format(dates.ISO)
	return &s
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
