package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"getmoredone/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const itemColumns = `id,who,title,description,parent_id,start_date,due_date,importance,urgency,size,value,priority_score,"group",category,planned_minutes,status,completed_at,created_at,updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.ActionItem, error) {
	var it domain.ActionItem
	var description, parentID, startDate, dueDate, group, category, completedAt sql.NullString
	var importance, urgency, size, value, plannedMinutes sql.NullInt64
	err := s.Scan(&it.ID, &it.Who, &it.Title, &description, &parentID, &startDate, &dueDate,
		&importance, &urgency, &size, &value, &it.PriorityScore,
		&group, &category, &plannedMinutes, &it.Status, &completedAt, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	if err != nil {
		return it, err
	}
	it.Description = nullStr(description)
	it.ParentID = nullStr(parentID)
	it.StartDate = nullStr(startDate)
	it.DueDate = nullStr(dueDate)
	it.Group = nullStr(group)
	it.Category = nullStr(category)
	it.CompletedAt = nullStr(completedAt)
	it.Importance = nullInt(importance)
	it.Urgency = nullInt(urgency)
	it.Size = nullInt(size)
	it.Value = nullInt(value)
	it.PlannedMinutes = nullInt(plannedMinutes)
	return it, nil
}

func (r Repo) InsertItem(ctx context.Context, tx *sql.Tx, it domain.ActionItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO action_items(`+itemColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Who, it.Title, nullableStringPtr(it.Description), nullableStringPtr(it.ParentID),
		nullableStringPtr(it.StartDate), nullableStringPtr(it.DueDate),
		nullableIntPtr(it.Importance), nullableIntPtr(it.Urgency), nullableIntPtr(it.Size), nullableIntPtr(it.Value),
		it.PriorityScore, nullableStringPtr(it.Group), nullableStringPtr(it.Category),
		nullableIntPtr(it.PlannedMinutes), it.Status, nullableStringPtr(it.CompletedAt), it.CreatedAt, it.UpdatedAt)
	return err
}

func (r Repo) UpdateItem(ctx context.Context, tx *sql.Tx, it domain.ActionItem) error {
	res, err := tx.ExecContext(ctx, `UPDATE action_items SET who=?, title=?, description=?, parent_id=?, start_date=?, due_date=?,
importance=?, urgency=?, size=?, value=?, priority_score=?, "group"=?, category=?, planned_minutes=?, status=?, completed_at=?, updated_at=? WHERE id=?`,
		it.Who, it.Title, nullableStringPtr(it.Description), nullableStringPtr(it.ParentID),
		nullableStringPtr(it.StartDate), nullableStringPtr(it.DueDate),
		nullableIntPtr(it.Importance), nullableIntPtr(it.Urgency), nullableIntPtr(it.Size), nullableIntPtr(it.Value),
		it.PriorityScore, nullableStringPtr(it.Group), nullableStringPtr(it.Category),
		nullableIntPtr(it.PlannedMinutes), it.Status, nullableStringPtr(it.CompletedAt), it.UpdatedAt, it.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetItem(ctx context.Context, id string) (domain.ActionItem, error) {
	return scanItem(r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM action_items WHERE id=?`, id))
}

func (r Repo) GetItemTx(ctx context.Context, tx *sql.Tx, id string) (domain.ActionItem, error) {
	return scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM action_items WHERE id=?`, id))
}

// ItemFilters narrows ListItems. Zero values mean "no filter".
type ItemFilters struct {
	Status   string
	Who      string
	Group    string
	Category string
	Parent   string
	RootOnly bool
}

func (f ItemFilters) clauses() ([]string, []any) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Who != "" {
		clauses = append(clauses, "who=?")
		args = append(args, f.Who)
	}
	if f.Group != "" {
		clauses = append(clauses, `"group"=?`)
		args = append(args, f.Group)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if f.Parent != "" {
		clauses = append(clauses, "parent_id=?")
		args = append(args, f.Parent)
	}
	if f.RootOnly {
		clauses = append(clauses, "parent_id IS NULL")
	}
	return clauses, args
}

// sortColumns is the fixed allow-list for caller-supplied sort keys. Anything
// else is rejected, never silently substituted.
var sortColumns = map[string]bool{
	"due_date":        true,
	"priority_score":  true,
	"importance":      true,
	"urgency":         true,
	"size":            true,
	"value":           true,
	"planned_minutes": true,
	"created_at":      true,
	"updated_at":      true,
}

// ListItems returns items matching the filters ordered by a validated sort
// key, with (created_at, id) as the deterministic tiebreak.
func (r Repo) ListItems(ctx context.Context, f ItemFilters, sortKey string, desc bool) ([]domain.ActionItem, error) {
	if !sortColumns[sortKey] {
		return nil, domain.SortKeyError{Key: sortKey}
	}
	clauses, args := f.clauses()
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	query := `SELECT ` + itemColumns + ` FROM action_items ` + where +
		` ORDER BY ` + sortKey + ` ` + direction + `, created_at ASC, id ASC`
	return r.queryItems(ctx, query, args...)
}

// UpcomingItems selects open items due inside [refDate, refDate+windowDays),
// ordered due date first, then score descending, then creation order. Items
// without a due date never appear here.
func (r Repo) UpcomingItems(ctx context.Context, who string, windowDays int, refDate string) ([]domain.ActionItem, error) {
	clauses := []string{
		"status='open'",
		"due_date IS NOT NULL",
		"due_date >= ?",
		"due_date < date(?, '+' || ? || ' days')",
	}
	args := []any{refDate, refDate, windowDays}
	if who != "" {
		clauses = append(clauses, "who=?")
		args = append(args, who)
	}
	query := `SELECT ` + itemColumns + ` FROM action_items WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY due_date ASC, priority_score DESC, created_at ASC, id ASC`
	return r.queryItems(ctx, query, args...)
}

// CompletedItems lists items completed at or after since, newest first.
func (r Repo) CompletedItems(ctx context.Context, who, since string) ([]domain.ActionItem, error) {
	clauses := []string{"status='completed'", "completed_at >= ?"}
	args := []any{since}
	if who != "" {
		clauses = append(clauses, "who=?")
		args = append(args, who)
	}
	query := `SELECT ` + itemColumns + ` FROM action_items WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY completed_at DESC, id ASC`
	return r.queryItems(ctx, query, args...)
}

// SearchItems matches title or description, highest score first.
func (r Repo) SearchItems(ctx context.Context, text string) ([]domain.ActionItem, error) {
	pattern := "%" + text + "%"
	query := `SELECT ` + itemColumns + ` FROM action_items WHERE title LIKE ? OR description LIKE ?
ORDER BY priority_score DESC, created_at ASC, id ASC`
	return r.queryItems(ctx, query, pattern, pattern)
}

// ListChildren returns the direct children of an item, best score first.
func (r Repo) ListChildren(ctx context.Context, itemID string) ([]domain.ActionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM action_items WHERE parent_id=?
ORDER BY priority_score DESC, created_at ASC, id ASC`
	return r.queryItems(ctx, query, itemID)
}

func (r Repo) queryItems(ctx context.Context, query string, args ...any) ([]domain.ActionItem, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActionItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// PromoteChildren clears parent_id for every child of itemID, making them
// root items. Deletion must never cascade down the hierarchy.
func (r Repo) PromoteChildren(ctx context.Context, tx *sql.Tx, itemID, updatedAt string) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE action_items SET parent_id=NULL, updated_at=? WHERE parent_id=?`, updatedAt, itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r Repo) DeleteItem(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM action_items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctWho lists every who value in use.
func (r Repo) DistinctWho(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT who FROM action_items ORDER BY who`)
}

func (r Repo) DistinctGroups(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT "group" FROM action_items WHERE "group" IS NOT NULL ORDER BY "group"`)
}

func (r Repo) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT category FROM action_items WHERE category IS NOT NULL ORDER BY category`)
}

func (r Repo) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// --- nullable adapters ---

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
