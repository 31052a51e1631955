package repo

import (
	"context"
	"database/sql"

	"getmoredone/internal/domain"
)

const defaultsColumns = `scope_type,scope_key,importance,urgency,size,value,"group",category,planned_minutes,start_offset_days,due_offset_days`

func scanDefaults(s scanner) (domain.DefaultsProfile, error) {
	var p domain.DefaultsProfile
	var group, category sql.NullString
	var importance, urgency, size, value, plannedMinutes, startOffset, dueOffset sql.NullInt64
	err := s.Scan(&p.ScopeType, &p.ScopeKey, &importance, &urgency, &size, &value,
		&group, &category, &plannedMinutes, &startOffset, &dueOffset)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Importance = nullInt(importance)
	p.Urgency = nullInt(urgency)
	p.Size = nullInt(size)
	p.Value = nullInt(value)
	p.Group = nullStr(group)
	p.Category = nullStr(category)
	p.PlannedMinutes = nullInt(plannedMinutes)
	p.StartOffsetDays = nullInt(startOffset)
	p.DueOffsetDays = nullInt(dueOffset)
	return p, nil
}

// GetDefaults fetches one profile. The system singleton uses ScopeSystem with
// an empty scope key.
func (r Repo) GetDefaults(ctx context.Context, scopeType, scopeKey string) (domain.DefaultsProfile, error) {
	return scanDefaults(r.DB.QueryRowContext(ctx,
		`SELECT `+defaultsColumns+` FROM defaults WHERE scope_type=? AND scope_key=?`, scopeType, scopeKey))
}

func (r Repo) GetDefaultsTx(ctx context.Context, tx *sql.Tx, scopeType, scopeKey string) (domain.DefaultsProfile, error) {
	return scanDefaults(tx.QueryRowContext(ctx,
		`SELECT `+defaultsColumns+` FROM defaults WHERE scope_type=? AND scope_key=?`, scopeType, scopeKey))
}

// SaveDefaults upserts the full profile for a scope.
func (r Repo) SaveDefaults(ctx context.Context, tx *sql.Tx, p domain.DefaultsProfile) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO defaults(`+defaultsColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(scope_type,scope_key) DO UPDATE SET
importance=excluded.importance, urgency=excluded.urgency, size=excluded.size, value=excluded.value,
"group"=excluded."group", category=excluded.category, planned_minutes=excluded.planned_minutes,
start_offset_days=excluded.start_offset_days, due_offset_days=excluded.due_offset_days`,
		p.ScopeType, p.ScopeKey, nullableIntPtr(p.Importance), nullableIntPtr(p.Urgency),
		nullableIntPtr(p.Size), nullableIntPtr(p.Value), nullableStringPtr(p.Group), nullableStringPtr(p.Category),
		nullableIntPtr(p.PlannedMinutes), nullableIntPtr(p.StartOffsetDays), nullableIntPtr(p.DueOffsetDays))
	return err
}

// ListDefaults returns every stored profile, system scope first.
func (r Repo) ListDefaults(ctx context.Context) ([]domain.DefaultsProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+defaultsColumns+` FROM defaults ORDER BY scope_type ASC, scope_key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DefaultsProfile
	for rows.Next() {
		p, err := scanDefaults(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
