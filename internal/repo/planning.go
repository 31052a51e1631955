package repo

import (
	"context"
	"database/sql"

	"getmoredone/internal/domain"
)

// --- time blocks ---

const blockColumns = `id,item_id,block_date,start_time,end_time,planned_minutes,label,created_at,updated_at`

func scanBlock(s scanner) (domain.TimeBlock, error) {
	var b domain.TimeBlock
	var itemID, label sql.NullString
	err := s.Scan(&b.ID, &itemID, &b.BlockDate, &b.StartTime, &b.EndTime,
		&b.PlannedMinutes, &label, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	b.ItemID = nullStr(itemID)
	b.Label = nullStr(label)
	return b, nil
}

func (r Repo) InsertTimeBlock(ctx context.Context, tx *sql.Tx, b domain.TimeBlock) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO time_blocks(`+blockColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		b.ID, nullableStringPtr(b.ItemID), b.BlockDate, b.StartTime, b.EndTime,
		b.PlannedMinutes, nullableStringPtr(b.Label), b.CreatedAt, b.UpdatedAt)
	return err
}

func (r Repo) GetTimeBlock(ctx context.Context, id string) (domain.TimeBlock, error) {
	return scanBlock(r.DB.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM time_blocks WHERE id=?`, id))
}

func (r Repo) DeleteTimeBlock(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM time_blocks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TimeBlocksForDate lists the blocks planned for one day in start-time order.
func (r Repo) TimeBlocksForDate(ctx context.Context, date string) ([]domain.TimeBlock, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM time_blocks WHERE block_date=? ORDER BY start_time ASC, id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TimeBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// --- work logs ---

const logColumns = `id,item_id,started_at,ended_at,minutes,note,created_at`

func (r Repo) InsertWorkLog(ctx context.Context, tx *sql.Tx, l domain.WorkLog) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO work_logs(`+logColumns+`) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.ItemID, l.StartedAt, nullableStringPtr(l.EndedAt), l.Minutes,
		nullableStringPtr(l.Note), l.CreatedAt)
	return err
}

func (r Repo) WorkLogsForItem(ctx context.Context, itemID string) ([]domain.WorkLog, error) {
	return r.queryWorkLogs(ctx,
		`SELECT `+logColumns+` FROM work_logs WHERE item_id=? ORDER BY started_at ASC, id ASC`, itemID)
}

// WorkLogsSince lists logs started at or after the given instant, newest
// first.
func (r Repo) WorkLogsSince(ctx context.Context, since string) ([]domain.WorkLog, error) {
	return r.queryWorkLogs(ctx,
		`SELECT `+logColumns+` FROM work_logs WHERE started_at >= ? ORDER BY started_at DESC, id ASC`, since)
}

func (r Repo) queryWorkLogs(ctx context.Context, query string, args ...any) ([]domain.WorkLog, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkLog
	for rows.Next() {
		var l domain.WorkLog
		var endedAt, note sql.NullString
		if err := rows.Scan(&l.ID, &l.ItemID, &l.StartedAt, &endedAt, &l.Minutes, &note, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.EndedAt = nullStr(endedAt)
		l.Note = nullStr(note)
		res = append(res, l)
	}
	return res, rows.Err()
}

// TotalActualMinutes sums all logged work for an item.
func (r Repo) TotalActualMinutes(ctx context.Context, itemID string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(minutes),0) FROM work_logs WHERE item_id=?`, itemID).Scan(&total)
	return total, err
}

// PlannedVsActual aggregates planned and logged minutes per item, for items
// that carry an estimate or have at least one work log. Filtered by the
// item's who when given.
func (r Repo) PlannedVsActual(ctx context.Context, who string) ([]domain.PlannedActual, error) {
	query := `SELECT i.id, i.title, i.who, i.category, i.size, COALESCE(i.planned_minutes,0), COALESCE(SUM(l.minutes),0)
FROM action_items i LEFT JOIN work_logs l ON l.item_id = i.id`
	var args []any
	if who != "" {
		query += ` WHERE i.who=?`
		args = append(args, who)
	}
	query += ` GROUP BY i.id HAVING COALESCE(i.planned_minutes,0) > 0 OR COUNT(l.id) > 0
ORDER BY i.created_at ASC, i.id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PlannedActual
	for rows.Next() {
		var pa domain.PlannedActual
		var category sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&pa.ItemID, &pa.Title, &pa.Who, &category, &size, &pa.PlannedMinutes, &pa.ActualMinutes); err != nil {
			return nil, err
		}
		pa.Category = nullStr(category)
		pa.Size = nullInt(size)
		pa.Variance = pa.ActualMinutes - pa.PlannedMinutes
		res = append(res, pa)
	}
	return res, rows.Err()
}

// --- item links ---

func (r Repo) InsertItemLink(ctx context.Context, tx *sql.Tx, l domain.ItemLink) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO item_links(id,item_id,label,url,created_at) VALUES (?,?,?,?,?)`,
		l.ID, l.ItemID, nullableStringPtr(l.Label), l.URL, l.CreatedAt)
	return err
}

func (r Repo) DeleteItemLink(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM item_links WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ItemLinks(ctx context.Context, itemID string) ([]domain.ItemLink, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,item_id,label,url,created_at FROM item_links WHERE item_id=? ORDER BY created_at ASC, id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ItemLink
	for rows.Next() {
		var l domain.ItemLink
		var label sql.NullString
		if err := rows.Scan(&l.ID, &l.ItemID, &label, &l.URL, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Label = nullStr(label)
		res = append(res, l)
	}
	return res, rows.Err()
}

// --- reschedule history ---

func (r Repo) InsertReschedule(ctx context.Context, tx *sql.Tx, rec domain.RescheduleRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reschedule_history(id,item_id,from_start,from_due,to_start,to_due,reason,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ItemID, nullableStringPtr(rec.FromStart), nullableStringPtr(rec.FromDue),
		nullableStringPtr(rec.ToStart), nullableStringPtr(rec.ToDue), nullableStringPtr(rec.Reason), rec.CreatedAt)
	return err
}

func (r Repo) RescheduleHistory(ctx context.Context, itemID string) ([]domain.RescheduleRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,item_id,from_start,from_due,to_start,to_due,reason,created_at FROM reschedule_history
WHERE item_id=? ORDER BY created_at ASC, id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RescheduleRecord
	for rows.Next() {
		var rec domain.RescheduleRecord
		var fromStart, fromDue, toStart, toDue, reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ItemID, &fromStart, &fromDue, &toStart, &toDue, &reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.FromStart = nullStr(fromStart)
		rec.FromDue = nullStr(fromDue)
		rec.ToStart = nullStr(toStart)
		rec.ToDue = nullStr(toDue)
		rec.Reason = nullStr(reason)
		res = append(res, rec)
	}
	return res, rows.Err()
}

// RescheduleCount reports how many times an item has been pushed.
func (r Repo) RescheduleCount(ctx context.Context, itemID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reschedule_history WHERE item_id=?`, itemID).Scan(&n)
	return n, err
}

// --- events ---

// RecentEvents returns the newest audit entries first, capped at limit.
func (r Repo) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,ts,type,entity_kind,entity_id,payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
