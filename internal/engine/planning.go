package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"getmoredone/internal/domain"
	"getmoredone/internal/events"
	"getmoredone/internal/repo"
)

// AddTimeBlockOptions plans a calendar segment. ItemID is optional; a block
// can stand alone.
type AddTimeBlockOptions struct {
	ItemID    *string
	BlockDate string
	StartTime string
	EndTime   string
	Label     *string
}

func (e *Engine) AddTimeBlock(ctx context.Context, opts AddTimeBlockOptions) (domain.TimeBlock, error) {
	var zero domain.TimeBlock
	if _, err := time.Parse("2006-01-02", opts.BlockDate); err != nil {
		return zero, domain.ValidationError{Field: "block_date", Reason: fmt.Sprintf("invalid date %q", opts.BlockDate)}
	}
	start, err := time.Parse("15:04", opts.StartTime)
	if err != nil {
		return zero, domain.ValidationError{Field: "start_time", Reason: fmt.Sprintf("invalid time %q", opts.StartTime)}
	}
	end, err := time.Parse("15:04", opts.EndTime)
	if err != nil {
		return zero, domain.ValidationError{Field: "end_time", Reason: fmt.Sprintf("invalid time %q", opts.EndTime)}
	}
	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		return zero, domain.ValidationError{Field: "end_time", Reason: "must be after start time"}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	if opts.ItemID != nil {
		if _, err := e.Repo.GetItemTx(ctx, tx, *opts.ItemID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return zero, domain.NotFoundError{Entity: "item", ID: *opts.ItemID}
			}
			return zero, err
		}
	}

	ts := e.stamp()
	b := domain.TimeBlock{
		ID:             uuid.NewString(),
		ItemID:         opts.ItemID,
		BlockDate:      opts.BlockDate,
		StartTime:      opts.StartTime,
		EndTime:        opts.EndTime,
		PlannedMinutes: minutes,
		Label:          opts.Label,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := e.Repo.InsertTimeBlock(ctx, tx, b); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "block.created", "block", b.ID, events.EventPayload{
		"block_date": b.BlockDate, "planned_minutes": b.PlannedMinutes,
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return b, nil
}

// DeleteTimeBlock removes a planned block. The linked item is untouched.
func (e *Engine) DeleteTimeBlock(ctx context.Context, id string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTimeBlock(ctx, tx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.NotFoundError{Entity: "block", ID: id}
		}
		return err
	}
	if err := e.Events.Append(ctx, tx, "block.deleted", "block", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Engine) TimeBlocksForDate(ctx context.Context, date string) ([]domain.TimeBlock, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, domain.ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q", date)}
	}
	return e.Repo.TimeBlocksForDate(ctx, date)
}

// AddWorkLogOptions records actual time against an item. Minutes exclude
// paused time; EndedAt is nil for aborted sessions.
type AddWorkLogOptions struct {
	ItemID    string
	StartedAt string
	EndedAt   *string
	Minutes   int
	Note      *string
}

func (e *Engine) AddWorkLog(ctx context.Context, opts AddWorkLogOptions) (domain.WorkLog, error) {
	var zero domain.WorkLog
	if opts.Minutes < 0 {
		return zero, domain.ValidationError{Field: "minutes", Reason: "must not be negative"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetItemTx(ctx, tx, opts.ItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: opts.ItemID}
		}
		return zero, err
	}

	l := domain.WorkLog{
		ID:        uuid.NewString(),
		ItemID:    opts.ItemID,
		StartedAt: opts.StartedAt,
		EndedAt:   opts.EndedAt,
		Minutes:   opts.Minutes,
		Note:      opts.Note,
		CreatedAt: e.stamp(),
	}
	if err := e.Repo.InsertWorkLog(ctx, tx, l); err != nil {
		return zero, err
	}
	if err := e.Events.Append(ctx, tx, "worklog.created", "worklog", l.ID, events.EventPayload{
		"item_id": l.ItemID, "minutes": l.Minutes,
	}); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return l, nil
}

func (e *Engine) WorkLogsForItem(ctx context.Context, itemID string) ([]domain.WorkLog, error) {
	return e.Repo.WorkLogsForItem(ctx, itemID)
}

func (e *Engine) WorkLogsSince(ctx context.Context, since string) ([]domain.WorkLog, error) {
	return e.Repo.WorkLogsSince(ctx, since)
}

// AddItemLink attaches a URL to an item. Calendar publish results land here
// with a "calendar" label.
func (e *Engine) AddItemLink(ctx context.Context, itemID, url string, label *string) (domain.ItemLink, error) {
	var zero domain.ItemLink
	if url == "" {
		return zero, domain.ValidationError{Field: "url", Reason: "must not be empty"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetItemTx(ctx, tx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, domain.NotFoundError{Entity: "item", ID: itemID}
		}
		return zero, err
	}

	l := domain.ItemLink{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		URL:       url,
		Label:     label,
		CreatedAt: e.stamp(),
	}
	if err := e.Repo.InsertItemLink(ctx, tx, l); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return l, nil
}

func (e *Engine) ItemLinks(ctx context.Context, itemID string) ([]domain.ItemLink, error) {
	return e.Repo.ItemLinks(ctx, itemID)
}
