package engine

import (
	"context"
	"errors"

	"getmoredone/internal/dates"
	"getmoredone/internal/domain"
	"getmoredone/internal/repo"
)

// UpcomingItems returns open items due within windowDays of refDate
// (today when empty). Items without a due date are excluded.
func (e *Engine) UpcomingItems(ctx context.Context, who string, windowDays int, refDate string) ([]domain.ActionItem, error) {
	if windowDays <= 0 {
		return nil, domain.ValidationError{Field: "window", Reason: "must be positive"}
	}
	if refDate == "" {
		refDate = e.now().Format(dates.ISO)
	}
	return e.Repo.UpcomingItems(ctx, who, windowDays, refDate)
}

// SortedItems lists items ordered by a caller-chosen key. The key is checked
// against the repo allow-list; unknown keys are rejected outright.
func (e *Engine) SortedItems(ctx context.Context, f repo.ItemFilters, sortKey string, desc bool) ([]domain.ActionItem, error) {
	if sortKey == "" {
		sortKey = "priority_score"
		desc = true
	}
	return e.Repo.ListItems(ctx, f, sortKey, desc)
}

// CompletedItems lists items completed since the given instant, newest first.
func (e *Engine) CompletedItems(ctx context.Context, who, since string) ([]domain.ActionItem, error) {
	return e.Repo.CompletedItems(ctx, who, since)
}

func (e *Engine) SearchItems(ctx context.Context, text string) ([]domain.ActionItem, error) {
	if text == "" {
		return nil, domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	return e.Repo.SearchItems(ctx, text)
}

func (e *Engine) GetItem(ctx context.Context, id string) (domain.ActionItem, error) {
	it, err := e.Repo.GetItem(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return it, domain.NotFoundError{Entity: "item", ID: id}
	}
	return it, err
}

// ItemDetail is an item with its derived extras for the detail views.
type ItemDetail struct {
	Item             domain.ActionItem         `json:"item"`
	Children         []domain.ActionItem       `json:"children,omitempty"`
	Links            []domain.ItemLink         `json:"links,omitempty"`
	WorkLogs         []domain.WorkLog          `json:"work_logs,omitempty"`
	ActualMinutes    int                       `json:"actual_minutes"`
	Reschedules      []domain.RescheduleRecord `json:"reschedules,omitempty"`
	TimesRescheduled int                       `json:"times_rescheduled"`
}

func (e *Engine) GetItemDetail(ctx context.Context, id string) (ItemDetail, error) {
	var d ItemDetail
	it, err := e.GetItem(ctx, id)
	if err != nil {
		return d, err
	}
	d.Item = it
	if d.Children, err = e.Repo.ListChildren(ctx, id); err != nil {
		return d, err
	}
	if d.Links, err = e.Repo.ItemLinks(ctx, id); err != nil {
		return d, err
	}
	if d.WorkLogs, err = e.Repo.WorkLogsForItem(ctx, id); err != nil {
		return d, err
	}
	if d.ActualMinutes, err = e.Repo.TotalActualMinutes(ctx, id); err != nil {
		return d, err
	}
	if d.Reschedules, err = e.Repo.RescheduleHistory(ctx, id); err != nil {
		return d, err
	}
	if d.TimesRescheduled, err = e.Repo.RescheduleCount(ctx, id); err != nil {
		return d, err
	}
	return d, nil
}

// Pickers lists the distinct field values in use, for completion surfaces.
type Pickers struct {
	Who        []string `json:"who"`
	Groups     []string `json:"groups"`
	Categories []string `json:"categories"`
}

func (e *Engine) FieldPickers(ctx context.Context) (Pickers, error) {
	var p Pickers
	var err error
	if p.Who, err = e.Repo.DistinctWho(ctx); err != nil {
		return p, err
	}
	if p.Groups, err = e.Repo.DistinctGroups(ctx); err != nil {
		return p, err
	}
	if p.Categories, err = e.Repo.DistinctCategories(ctx); err != nil {
		return p, err
	}
	return p, nil
}

// TreeNode is one item plus its recursively loaded children.
type TreeNode struct {
	Item     domain.ActionItem `json:"item"`
	Children []TreeNode        `json:"children,omitempty"`
}

// ItemTree loads the subtree rooted at id. Depth is bounded the same way the
// cycle guard is.
func (e *Engine) ItemTree(ctx context.Context, id string) (TreeNode, error) {
	it, err := e.GetItem(ctx, id)
	if err != nil {
		return TreeNode{}, err
	}
	return e.subtree(ctx, it, 0)
}

func (e *Engine) subtree(ctx context.Context, it domain.ActionItem, depth int) (TreeNode, error) {
	node := TreeNode{Item: it}
	if depth >= maxDepth {
		return node, nil
	}
	children, err := e.Repo.ListChildren(ctx, it.ID)
	if err != nil {
		return node, err
	}
	for _, child := range children {
		sub, err := e.subtree(ctx, child, depth+1)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, sub)
	}
	return node, nil
}

// Stats returns the planned-vs-actual report rows.
func (e *Engine) Stats(ctx context.Context, who string) ([]domain.PlannedActual, error) {
	return e.Repo.PlannedVsActual(ctx, who)
}

func (e *Engine) ListDefaults(ctx context.Context) ([]domain.DefaultsProfile, error) {
	return e.Repo.ListDefaults(ctx)
}

func (e *Engine) GetDefaults(ctx context.Context, scopeType, scopeKey string) (domain.DefaultsProfile, error) {
	p, err := e.Repo.GetDefaults(ctx, scopeType, scopeKey)
	if errors.Is(err, repo.ErrNotFound) {
		return p, domain.NotFoundError{Entity: "defaults", ID: scopeType + ":" + scopeKey}
	}
	return p, err
}

func (e *Engine) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.Repo.RecentEvents(ctx, limit)
}
