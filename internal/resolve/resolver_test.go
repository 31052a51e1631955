package resolve_test

import (
	"testing"
	"time"

	"getmoredone/internal/domain"
	"getmoredone/internal/resolve"
)

var today = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC) // a Monday

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func cal() resolve.Calendar { return resolve.Calendar{IncludeSaturday: true, IncludeSunday: true} }

func sys() *domain.DefaultsProfile {
	return &domain.DefaultsProfile{ScopeType: domain.ScopeSystem, Importance: intp(10), Group: strp("Inbox")}
}

func TestPrecedenceExplicitWins(t *testing.T) {
	who := &domain.DefaultsProfile{ScopeType: domain.ScopeWho, ScopeKey: "Alice", Importance: intp(20)}
	d := resolve.Draft{Importance: intp(1), ImportanceSet: true}
	r := resolve.Apply(d, who, sys(), today, cal())
	if r.Importance == nil || *r.Importance != 1 {
		t.Fatalf("explicit importance lost: %v", r.Importance)
	}
}

func TestPrecedenceWhoOverSystem(t *testing.T) {
	who := &domain.DefaultsProfile{ScopeType: domain.ScopeWho, ScopeKey: "Alice", Importance: intp(20)}
	r := resolve.Apply(resolve.Draft{}, who, sys(), today, cal())
	if r.Importance == nil || *r.Importance != 20 {
		t.Fatalf("who default should win: %v", r.Importance)
	}
	// system fills fields the who profile leaves empty
	if r.Group == nil || *r.Group != "Inbox" {
		t.Fatalf("system group should apply: %v", r.Group)
	}
}

func TestPrecedenceSystemThenNil(t *testing.T) {
	r := resolve.Apply(resolve.Draft{}, nil, sys(), today, cal())
	if r.Importance == nil || *r.Importance != 10 {
		t.Fatalf("system default should apply: %v", r.Importance)
	}
	if r.Urgency != nil {
		t.Fatalf("no default anywhere should stay nil, got %v", *r.Urgency)
	}
}

func TestExplicitClearNotRedefaulted(t *testing.T) {
	// user explicitly cleared group: defaults must not resurrect it
	d := resolve.Draft{Group: nil, GroupSet: true}
	r := resolve.Apply(d, nil, sys(), today, cal())
	if r.Group != nil {
		t.Fatalf("explicitly cleared field was re-defaulted to %q", *r.Group)
	}
}

func TestWhoChangeReapply(t *testing.T) {
	// importance explicitly High, group untouched; resolving against B's
	// profile (group default "Work") keeps importance and fills group.
	b := &domain.DefaultsProfile{ScopeType: domain.ScopeWho, ScopeKey: "B", Group: strp("Work")}
	d := resolve.Draft{Importance: intp(10), ImportanceSet: true}
	r := resolve.Apply(d, b, nil, today, cal())
	if r.Importance == nil || *r.Importance != 10 {
		t.Fatalf("explicit importance lost on who change: %v", r.Importance)
	}
	if r.Group == nil || *r.Group != "Work" {
		t.Fatalf("untouched group not re-defaulted: %v", r.Group)
	}
}

func TestDateOffsets(t *testing.T) {
	who := &domain.DefaultsProfile{
		ScopeType:       domain.ScopeWho,
		ScopeKey:        "Alice",
		StartOffsetDays: intp(0),
		DueOffsetDays:   intp(3),
	}
	r := resolve.Apply(resolve.Draft{}, who, nil, today, cal())
	if r.StartDate == nil || *r.StartDate != "2026-01-12" {
		t.Fatalf("start offset: %v", r.StartDate)
	}
	if r.DueDate == nil || *r.DueDate != "2026-01-15" {
		t.Fatalf("due offset: %v", r.DueDate)
	}
}

func TestDateOffsetsSkipWeekend(t *testing.T) {
	friday := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	who := &domain.DefaultsProfile{ScopeType: domain.ScopeWho, ScopeKey: "Alice", DueOffsetDays: intp(1)}
	r := resolve.Apply(resolve.Draft{}, who, nil, friday, resolve.Calendar{})
	if r.DueDate == nil || *r.DueDate != "2026-01-19" {
		t.Fatalf("weekend-aware offset: %v", r.DueDate)
	}
}

func TestExplicitDateSuppressesOffset(t *testing.T) {
	who := &domain.DefaultsProfile{ScopeType: domain.ScopeWho, ScopeKey: "Alice", DueOffsetDays: intp(3)}
	d := resolve.Draft{DueDate: strp("2026-02-01"), DueDateSet: true}
	r := resolve.Apply(d, who, nil, today, cal())
	if r.DueDate == nil || *r.DueDate != "2026-02-01" {
		t.Fatalf("explicit due date lost: %v", r.DueDate)
	}
	// explicitly cleared date must not get the offset either
	d = resolve.Draft{DueDateSet: true}
	r = resolve.Apply(d, who, nil, today, cal())
	if r.DueDate != nil {
		t.Fatalf("cleared due date re-offset to %q", *r.DueDate)
	}
}

func TestNoAliasingWithProfiles(t *testing.T) {
	system := sys()
	r := resolve.Apply(resolve.Draft{}, nil, system, today, cal())
	*r.Importance = 999
	if *system.Importance != 10 {
		t.Fatalf("resolution aliased the profile")
	}
}
