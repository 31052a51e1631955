// Package engine implements the lifecycle operations over action items.
// Every mutating operation runs in a single write transaction, re-resolves
// defaults, re-scores the item, and appends its audit event before commit.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"getmoredone/internal/domain"
	"getmoredone/internal/events"
	"getmoredone/internal/factors"
	"getmoredone/internal/repo"
	"getmoredone/internal/resolve"
)

// maxDepth bounds the ancestor walk so corrupt data cannot loop forever.
const maxDepth = 1000

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Cal    resolve.Calendar
	Now    func() time.Time
}

// New wires an engine over an open database. The events writer shares the
// engine clock so pinned time in tests covers the audit trail too.
func New(conn *sql.DB, cal resolve.Calendar) *Engine {
	e := &Engine{
		DB:   conn,
		Repo: repo.Repo{DB: conn},
		Cal:  cal,
		Now:  time.Now,
	}
	e.Events = events.Writer{DB: conn, Now: func() time.Time { return e.now() }}
	return e
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) stamp() string {
	return e.now().Format(time.RFC3339)
}

// CreateItemOptions describes a new item. Fields carries what the user
// explicitly provided; everything untouched is resolved from defaults.
type CreateItemOptions struct {
	Who         string
	Title       string
	Description *string
	ParentID    *string
	Fields      resolve.Draft
}

// EditItemOptions describes one edit session. Nil or Set=false fields are
// left as stored, except after a who change, where every field the session
// did not touch is re-resolved against the new who's defaults.
type EditItemOptions struct {
	Who            *string
	Title          *string
	Description    *string
	DescriptionSet bool
	ParentID       *string
	ParentIDSet    bool
	Fields         resolve.Draft
}

// DuplicateOptions overrides fields on the copy. Unset dates carry over from
// the source item.
type DuplicateOptions struct {
	Title        *string
	StartDate    *string
	StartDateSet bool
	DueDate      *string
	DueDateSet   bool
	Note         *string
}

func (e *Engine) CreateItem(ctx context.Context, opts CreateItemOptions) (domain.ActionItem, error) {
	var zero domain.ActionItem
	if opts.Who == "" {
		return zero, domain.ValidationError{Field: "who", Reason: "must not be empty"}
	}
	if opts.Title == "" {
		return zero, domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := validateDraft(opts.Fields); err != nil {
		return zero, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	if opts.ParentID != nil {
		if _, err := e.Repo.GetItemTx(ctx, tx, *opts.ParentID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return zero, domain.NotFoundError{Entity: "item", ID: *opts.ParentID}
			}
			return zero, err
		}
	}

	res, err := e.resolveTx(ctx, tx, opts.Fields, opts.Who)
	if err != nil {
		return zero, err
	}
	if err := validateDates(res.StartDate, res.DueDate); err != nil {
		return zero, err
	}

	ts := e.stamp()
	it := domain.ActionItem{
		ID:             uuid.NewString(),
		Who:            opts.Who,
		Title:          opts.Title,
		Description:    opts.Description,
		ParentID:       opts.ParentID,
		StartDate:      res.StartDate,
		DueDate:        res.DueDate,
		Importance:     res.Importance,
		Urgency:        res.Urgency,
		Size:           res.Size,
		Value:          res.Value,
		PriorityScore:  factors.ScoreResolved(res.Importance, res.Urgency, res.Size, res.Value),
		Group:          res.Group,
		Category:       res.Category,
		PlannedMinutes: res.PlannedMinutes,
		Status:         domain.StatusOpen,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := e.Repo.InsertItem(ctx, tx, it); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.created", "item", it.ID, events.EventPayload{
		"who": it.Who, "title": it.Title, "priority_score": it.PriorityScore,
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return it, nil
}

// CreateSubItem creates a child of parentID. The child starts from its own
// defaults resolution; nothing is inherited implicitly.
func (e *Engine) CreateSubItem(ctx context.Context, parentID string, opts CreateItemOptions) (domain.ActionItem, error) {
	opts.ParentID = &parentID
	return e.CreateItem(ctx, opts)
}

func (e *Engine) EditItem(ctx context.Context, id string, opts EditItemOptions) (domain.ActionItem, error) {
	var zero domain.ActionItem
	if opts.Who != nil && *opts.Who == "" {
		return zero, domain.ValidationError{Field: "who", Reason: "must not be empty"}
	}
	if opts.Title != nil && *opts.Title == "" {
		return zero, domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := validateDraft(opts.Fields); err != nil {
		return zero, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, err
	}

	if opts.ParentIDSet {
		if opts.ParentID != nil {
			if err := e.ensureNoCycle(ctx, tx, id, *opts.ParentID); err != nil {
				return zero, err
			}
		}
		it.ParentID = opts.ParentID
	}
	whoChanged := opts.Who != nil && *opts.Who != it.Who
	if opts.Who != nil {
		it.Who = *opts.Who
	}
	if opts.Title != nil {
		it.Title = *opts.Title
	}
	if opts.DescriptionSet {
		it.Description = opts.Description
	}

	// A who change re-resolves every field this session left untouched; an
	// ordinary edit pins the stored values so only touched fields move.
	draft := opts.Fields
	if !whoChanged {
		draft = pinStored(draft, it)
	}
	res, err := e.resolveTx(ctx, tx, draft, it.Who)
	if err != nil {
		return zero, err
	}
	if err := validateDates(res.StartDate, res.DueDate); err != nil {
		return zero, err
	}

	it.StartDate = res.StartDate
	it.DueDate = res.DueDate
	it.Importance = res.Importance
	it.Urgency = res.Urgency
	it.Size = res.Size
	it.Value = res.Value
	it.Group = res.Group
	it.Category = res.Category
	it.PlannedMinutes = res.PlannedMinutes
	it.PriorityScore = factors.ScoreResolved(res.Importance, res.Urgency, res.Size, res.Value)
	it.UpdatedAt = e.stamp()

	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.updated", "item", it.ID, events.EventPayload{
		"priority_score": it.PriorityScore,
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return it, nil
}

// CompleteItem marks an item completed. Completing an already-completed item
// is a no-op; completing a canceled item is an error.
func (e *Engine) CompleteItem(ctx context.Context, id string) (domain.ActionItem, error) {
	var zero domain.ActionItem
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, err
	}
	switch it.Status {
	case domain.StatusCompleted:
		return it, nil
	case domain.StatusCanceled:
		return zero, domain.ValidationError{Field: "status", Reason: "canceled items cannot be completed"}
	}

	ts := e.stamp()
	it.Status = domain.StatusCompleted
	it.CompletedAt = &ts
	it.UpdatedAt = ts
	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.completed", "item", it.ID, events.EventPayload{
		"completed_at": ts,
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return it, nil
}

// CancelItem moves an item to the terminal canceled state. Canceling twice is
// a no-op.
func (e *Engine) CancelItem(ctx context.Context, id string) (domain.ActionItem, error) {
	var zero domain.ActionItem
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, err
	}
	if it.Status == domain.StatusCanceled {
		return it, nil
	}

	it.Status = domain.StatusCanceled
	it.CompletedAt = nil
	it.UpdatedAt = e.stamp()
	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.canceled", "item", it.ID, nil); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return it, nil
}

// DuplicateItem creates an open copy of an item with fresh timestamps. The
// copy keeps the source's resolved fields except where overridden.
func (e *Engine) DuplicateItem(ctx context.Context, id string, opts DuplicateOptions) (domain.ActionItem, error) {
	var zero domain.ActionItem
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()
	dup, err := e.duplicateTx(ctx, tx, id, opts)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return dup, nil
}

// CompleteAndDuplicate completes an item and creates its open follow-up copy
// in the same transaction. The timer's "continue later" path lands here.
func (e *Engine) CompleteAndDuplicate(ctx context.Context, id string, opts DuplicateOptions) (domain.ActionItem, domain.ActionItem, error) {
	var zero domain.ActionItem
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, zero, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, zero, err
	}
	if it.Status == domain.StatusCanceled {
		return zero, zero, domain.ValidationError{Field: "status", Reason: "canceled items cannot be completed"}
	}
	ts := e.stamp()
	if it.Status != domain.StatusCompleted {
		it.Status = domain.StatusCompleted
		it.CompletedAt = &ts
		it.UpdatedAt = ts
		if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
			return zero, zero, err
		}
		if err := e.Events.Append(ctx, tx, "item.completed", "item", it.ID, events.EventPayload{
			"completed_at": ts,
		}); err != nil {
			return zero, zero, err
		}
	}
	dup, err := e.duplicateTx(ctx, tx, id, opts)
	if err != nil {
		return zero, zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, zero, err
	}
	return it, dup, nil
}

func (e *Engine) duplicateTx(ctx context.Context, tx *sql.Tx, id string, opts DuplicateOptions) (domain.ActionItem, error) {
	var zero domain.ActionItem
	src, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, err
	}

	ts := e.stamp()
	dup := src
	dup.ID = uuid.NewString()
	dup.Status = domain.StatusOpen
	dup.CompletedAt = nil
	dup.CreatedAt = ts
	dup.UpdatedAt = ts
	if opts.Title != nil {
		dup.Title = *opts.Title
	}
	if opts.StartDateSet {
		dup.StartDate = opts.StartDate
	}
	if opts.DueDateSet {
		dup.DueDate = opts.DueDate
	}
	if opts.Note != nil {
		dup.Description = opts.Note
	}
	if err := validateDates(dup.StartDate, dup.DueDate); err != nil {
		return zero, err
	}
	if err := e.Repo.InsertItem(ctx, tx, dup); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.duplicated", "item", dup.ID, events.EventPayload{
		"source_id": src.ID,
	}); err != nil {
		return zero, err
	}
	return dup, nil
}

// RescheduleOptions moves an item's dates and records the move. A nil date
// with Set=true clears it.
type RescheduleOptions struct {
	StartDate    *string
	StartDateSet bool
	DueDate      *string
	DueDateSet   bool
	Reason       *string
}

func (e *Engine) RescheduleItem(ctx context.Context, id string, opts RescheduleOptions) (domain.ActionItem, error) {
	var zero domain.ActionItem
	if !opts.StartDateSet && !opts.DueDateSet {
		return zero, domain.ValidationError{Field: "dates", Reason: "nothing to reschedule"}
	}
	if err := validateDraft(resolve.Draft{
		StartDate: opts.StartDate, StartDateSet: opts.StartDateSet,
		DueDate: opts.DueDate, DueDateSet: opts.DueDateSet,
	}); err != nil {
		return zero, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	it, err := e.Repo.GetItemTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: id}
		}
		return zero, err
	}

	rec := domain.RescheduleRecord{
		ID:        uuid.NewString(),
		ItemID:    it.ID,
		FromStart: it.StartDate,
		FromDue:   it.DueDate,
		Reason:    opts.Reason,
		CreatedAt: e.stamp(),
	}
	if opts.StartDateSet {
		it.StartDate = opts.StartDate
	}
	if opts.DueDateSet {
		it.DueDate = opts.DueDate
	}
	if err := validateDates(it.StartDate, it.DueDate); err != nil {
		return zero, err
	}
	rec.ToStart = it.StartDate
	rec.ToDue = it.DueDate

	it.UpdatedAt = rec.CreatedAt
	if err := e.Repo.UpdateItem(ctx, tx, it); err != nil {
		return zero, err
	}
	if err := e.Repo.InsertReschedule(ctx, tx, rec); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "item.rescheduled", "item", it.ID, events.EventPayload{
		"from_due": strOrEmpty(rec.FromDue), "to_due": strOrEmpty(rec.ToDue),
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return it, nil
}

// DeleteItem removes the item and its owned rows. Children survive and are
// promoted to root before the delete so the hierarchy never cascades; time
// blocks keep their slot with the item reference cleared.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetItemTx(ctx, tx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.NotFoundError{Entity: "item", ID: id}
		}
		return err
	}
	if _, err := e.Repo.PromoteChildren(ctx, tx, id, e.stamp()); err != nil {
		return err
	}
	if err := e.Repo.DeleteItem(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "item.deleted", "item", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveDefaults validates and upserts a defaults profile.
func (e *Engine) SaveDefaults(ctx context.Context, p domain.DefaultsProfile) error {
	if p.ScopeType != domain.ScopeSystem && p.ScopeType != domain.ScopeWho {
		return domain.ValidationError{Field: "scope_type", Reason: "must be system or who"}
	}
	if p.ScopeType == domain.ScopeWho && p.ScopeKey == "" {
		return domain.ValidationError{Field: "scope_key", Reason: "who scope requires a key"}
	}
	if p.ScopeType == domain.ScopeSystem {
		p.ScopeKey = ""
	}
	if err := validateDraft(resolve.Draft{
		Importance: p.Importance, ImportanceSet: p.Importance != nil,
		Urgency: p.Urgency, UrgencySet: p.Urgency != nil,
		Size: p.Size, SizeSet: p.Size != nil,
		Value: p.Value, ValueSet: p.Value != nil,
	}); err != nil {
		return err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.SaveDefaults(ctx, tx, p); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "defaults.saved", "defaults", p.ScopeType+":"+p.ScopeKey, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// resolveTx loads the system and who profiles inside the transaction and
// merges the draft against them.
func (e *Engine) resolveTx(ctx context.Context, tx *sql.Tx, d resolve.Draft, who string) (resolve.Resolved, error) {
	var system, whoProf *domain.DefaultsProfile
	if p, err := e.Repo.GetDefaultsTx(ctx, tx, domain.ScopeSystem, ""); err == nil {
		system = &p
	} else if !errors.Is(err, repo.ErrNotFound) {
		return resolve.Resolved{}, err
	}
	if p, err := e.Repo.GetDefaultsTx(ctx, tx, domain.ScopeWho, who); err == nil {
		whoProf = &p
	} else if !errors.Is(err, repo.ErrNotFound) {
		return resolve.Resolved{}, err
	}
	return resolve.Apply(d, whoProf, system, e.now(), e.Cal), nil
}

// ensureNoCycle walks up from newParent and fails if it reaches itemID. The
// visited set and depth bound keep corrupt data from looping.
func (e *Engine) ensureNoCycle(ctx context.Context, tx *sql.Tx, itemID, newParent string) error {
	if itemID == newParent {
		return domain.CycleError{ItemID: itemID}
	}
	visited := map[string]bool{itemID: true}
	current := newParent
	for depth := 0; depth < maxDepth; depth++ {
		it, err := e.Repo.GetItemTx(ctx, tx, current)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.NotFoundError{Entity: "item", ID: current}
			}
			return err
		}
		if it.ParentID == nil {
			return nil
		}
		next := *it.ParentID
		if visited[next] {
			return domain.CycleError{ItemID: itemID}
		}
		visited[next] = true
		current = next
	}
	return domain.CycleError{ItemID: itemID}
}

// pinStored fills every untouched draft field with the stored value so Apply
// keeps it instead of re-defaulting.
func pinStored(d resolve.Draft, it domain.ActionItem) resolve.Draft {
	if !d.ImportanceSet {
		d.Importance, d.ImportanceSet = it.Importance, true
	}
	if !d.UrgencySet {
		d.Urgency, d.UrgencySet = it.Urgency, true
	}
	if !d.SizeSet {
		d.Size, d.SizeSet = it.Size, true
	}
	if !d.ValueSet {
		d.Value, d.ValueSet = it.Value, true
	}
	if !d.GroupSet {
		d.Group, d.GroupSet = it.Group, true
	}
	if !d.CategorySet {
		d.Category, d.CategorySet = it.Category, true
	}
	if !d.PlannedMinutesSet {
		d.PlannedMinutes, d.PlannedMinutesSet = it.PlannedMinutes, true
	}
	if !d.StartDateSet {
		d.StartDate, d.StartDateSet = it.StartDate, true
	}
	if !d.DueDateSet {
		d.DueDate, d.DueDateSet = it.DueDate, true
	}
	return d
}

func validateDraft(d resolve.Draft) error {
	checks := []struct {
		f   factors.Factor
		v   *int
		set bool
	}{
		{factors.Importance, d.Importance, d.ImportanceSet},
		{factors.Urgency, d.Urgency, d.UrgencySet},
		{factors.Size, d.Size, d.SizeSet},
		{factors.Value, d.Value, d.ValueSet},
	}
	for _, c := range checks {
		if c.set && c.v != nil {
			if err := factors.Validate(c.f, *c.v); err != nil {
				return err
			}
		}
	}
	if d.PlannedMinutesSet && d.PlannedMinutes != nil && *d.PlannedMinutes < 0 {
		return domain.ValidationError{Field: "planned_minutes", Reason: "must not be negative"}
	}
	for _, dc := range []struct {
		field string
		v     *string
		set   bool
	}{
		{"start_date", d.StartDate, d.StartDateSet},
		{"due_date", d.DueDate, d.DueDateSet},
	} {
		if dc.set && dc.v != nil {
			if _, err := time.Parse("2006-01-02", *dc.v); err != nil {
				return domain.ValidationError{Field: dc.field, Reason: fmt.Sprintf("invalid date %q", *dc.v)}
			}
		}
	}
	return nil
}

// validateDates enforces start <= due when both are present.
func validateDates(start, due *string) error {
	if start == nil || due == nil {
		return nil
	}
	if *start > *due {
		return domain.ValidationError{Field: "start_date", Reason: "start date is after due date"}
	}
	return nil
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
