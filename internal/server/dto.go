package server

import (
	"getmoredone/internal/domain"
	"getmoredone/internal/engine"
	"getmoredone/internal/resolve"
)

// Request payloads

// FactorFields carries the optional factor/defaults inputs shared by create
// and edit. Field presence is significant: an absent field is untouched, an
// explicit null clears it.
type FactorFields struct {
	Importance     *int    `json:"importance,omitempty"`
	Urgency        *int    `json:"urgency,omitempty"`
	Size           *int    `json:"size,omitempty"`
	Value          *int    `json:"value,omitempty"`
	Group          *string `json:"group,omitempty"`
	Category       *string `json:"category,omitempty"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty"`
	StartDate      *string `json:"start_date,omitempty" format:"date"`
	DueDate        *string `json:"due_date,omitempty" format:"date"`
}

type CreateItemRequest struct {
	Who         string  `json:"who"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	FactorFields
}

type EditItemRequest struct {
	Who         *string `json:"who,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	FactorFields
}

type DuplicateRequest struct {
	Title     *string `json:"title,omitempty"`
	StartDate *string `json:"start_date,omitempty" format:"date"`
	DueDate   *string `json:"due_date,omitempty" format:"date"`
	Note      *string `json:"note,omitempty"`
}

type RescheduleRequest struct {
	StartDate *string `json:"start_date,omitempty" format:"date"`
	DueDate   *string `json:"due_date,omitempty" format:"date"`
	Reason    *string `json:"reason,omitempty"`
}

type DefaultsRequest struct {
	ScopeType string `json:"scope_type" enum:"system,who"`
	ScopeKey  string `json:"scope_key,omitempty"`
	FactorFields
	StartOffsetDays *int `json:"start_offset_days,omitempty"`
	DueOffsetDays   *int `json:"due_offset_days,omitempty"`
}

type CreateBlockRequest struct {
	ItemID    *string `json:"item_id,omitempty"`
	BlockDate string  `json:"block_date" format:"date"`
	StartTime string  `json:"start_time" example:"09:00"`
	EndTime   string  `json:"end_time" example:"09:50"`
	Label     *string `json:"label,omitempty"`
}

type CreateWorkLogRequest struct {
	StartedAt string  `json:"started_at" format:"date-time"`
	EndedAt   *string `json:"ended_at,omitempty" format:"date-time"`
	Minutes   int     `json:"minutes"`
	Note      *string `json:"note,omitempty"`
}

type CreateLinkRequest struct {
	URL   string  `json:"url"`
	Label *string `json:"label,omitempty"`
}

// Response payloads

type ItemResponse struct {
	Item domain.ActionItem `json:"item"`
}

type ItemListResponse struct {
	Items []domain.ActionItem `json:"items"`
}

type CompleteCreateResponse struct {
	Completed domain.ActionItem `json:"completed"`
	Created   domain.ActionItem `json:"created"`
}

// draftFromBody converts the wire fields into a resolution draft. The raw
// body keys tell explicit-null apart from absent.
func draftFromBody(f FactorFields, present func(string) bool) resolve.Draft {
	return resolve.Draft{
		Importance: f.Importance, ImportanceSet: present("importance"),
		Urgency: f.Urgency, UrgencySet: present("urgency"),
		Size: f.Size, SizeSet: present("size"),
		Value: f.Value, ValueSet: present("value"),
		Group: f.Group, GroupSet: present("group"),
		Category: f.Category, CategorySet: present("category"),
		PlannedMinutes: f.PlannedMinutes, PlannedMinutesSet: present("planned_minutes"),
		StartDate: f.StartDate, StartDateSet: present("start_date"),
		DueDate: f.DueDate, DueDateSet: present("due_date"),
	}
}

func duplicateOptions(r DuplicateRequest, present func(string) bool) engine.DuplicateOptions {
	return engine.DuplicateOptions{
		Title:     r.Title,
		StartDate: r.StartDate, StartDateSet: present("start_date"),
		DueDate: r.DueDate, DueDateSet: present("due_date"),
		Note: r.Note,
	}
}
