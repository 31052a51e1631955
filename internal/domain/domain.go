package domain

// Item status values. Completed and canceled are terminal.
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// ActionItem is the central entity: a partially-specified piece of work
// resolved against defaults and scored at every save.
type ActionItem struct {
	ID             string  `json:"id"`
	Who            string  `json:"who"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
	StartDate      *string `json:"start_date,omitempty" format:"date"`
	DueDate        *string `json:"due_date,omitempty" format:"date"`
	Importance     *int    `json:"importance,omitempty"`
	Urgency        *int    `json:"urgency,omitempty"`
	Size           *int    `json:"size,omitempty"`
	Value          *int    `json:"value,omitempty"`
	PriorityScore  int     `json:"priority_score"`
	Group          *string `json:"group,omitempty"`
	Category       *string `json:"category,omitempty"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty"`
	Status         string  `json:"status" enum:"open,completed,canceled"`
	CompletedAt    *string `json:"completed_at,omitempty" format:"date-time"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

// Defaults scope types.
const (
	ScopeSystem = "system"
	ScopeWho    = "who"
)

// DefaultsProfile carries optional default values for item fields, either
// system-wide (the singleton, ScopeKey empty) or per-who.
type DefaultsProfile struct {
	ScopeType       string  `json:"scope_type" enum:"system,who"`
	ScopeKey        string  `json:"scope_key,omitempty"`
	Importance      *int    `json:"importance,omitempty"`
	Urgency         *int    `json:"urgency,omitempty"`
	Size            *int    `json:"size,omitempty"`
	Value           *int    `json:"value,omitempty"`
	Group           *string `json:"group,omitempty"`
	Category        *string `json:"category,omitempty"`
	PlannedMinutes  *int    `json:"planned_minutes,omitempty"`
	StartOffsetDays *int    `json:"start_offset_days,omitempty"`
	DueOffsetDays   *int    `json:"due_offset_days,omitempty"`
}

// RescheduleRecord is an immutable audit entry written once per reschedule.
type RescheduleRecord struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"item_id"`
	FromStart *string `json:"from_start,omitempty" format:"date"`
	FromDue   *string `json:"from_due,omitempty" format:"date"`
	ToStart   *string `json:"to_start,omitempty" format:"date"`
	ToDue     *string `json:"to_due,omitempty" format:"date"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

// TimeBlock is a planned calendar segment, optionally linked to an item.
// Deleting a block never touches the linked item.
type TimeBlock struct {
	ID             string  `json:"id"`
	ItemID         *string `json:"item_id,omitempty"`
	BlockDate      string  `json:"block_date" format:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	PlannedMinutes int     `json:"planned_minutes"`
	Label          *string `json:"label,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

// WorkLog records actual time spent against an item. Minutes exclude pauses;
// EndedAt is nil when the session was aborted.
type WorkLog struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"item_id"`
	StartedAt string  `json:"started_at" format:"date-time"`
	EndedAt   *string `json:"ended_at,omitempty" format:"date-time"`
	Minutes   int     `json:"minutes"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

// ItemLink is a URL attachment owned by an item. Calendar event references
// land here as well.
type ItemLink struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"item_id"`
	URL       string  `json:"url"`
	Label     *string `json:"label,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

// Event is one row of the append-only audit log.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// PlannedActual is one row of the planned-vs-actual report.
type PlannedActual struct {
	ItemID         string  `json:"item_id"`
	Title          string  `json:"title"`
	Who            string  `json:"who"`
	Category       *string `json:"category,omitempty"`
	Size           *int    `json:"size,omitempty"`
	PlannedMinutes int     `json:"planned_minutes"`
	ActualMinutes  int     `json:"actual_minutes"`
	Variance       int     `json:"variance"`
}
