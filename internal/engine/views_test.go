package engine_test

import (
	"errors"
	"testing"
	"time"

	"getmoredone/internal/domain"
	"getmoredone/internal/engine"
	"getmoredone/internal/repo"
	"getmoredone/internal/resolve"
)

func TestUpcomingOrdering(t *testing.T) {
	env := newTestEnv(t)
	clock := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	env.Engine.Now = func() time.Time { return clock }

	mk := func(title, due string, draft resolve.Draft) domain.ActionItem {
		t.Helper()
		draft.DueDate, draft.DueDateSet = strp(due), true
		it, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: title, Fields: draft})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		clock = clock.Add(time.Minute)
		return it
	}

	lowLate := mk("low-late", "2026-01-20", resolve.Draft{
		Importance: intp(1), ImportanceSet: true, Urgency: intp(1), UrgencySet: true,
		Size: intp(2), SizeSet: true, Value: intp(2), ValueSet: true,
	})
	highLate := mk("high-late", "2026-01-20", resolve.Draft{
		Importance: intp(20), ImportanceSet: true, Urgency: intp(20), UrgencySet: true,
		Size: intp(16), SizeSet: true, Value: intp(16), ValueSet: true,
	})
	early := mk("early", "2026-01-18", resolve.Draft{})

	// excluded: no due date, wrong status, outside the window
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "dateless"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	doneItem := mk("done", "2026-01-19", resolve.Draft{})
	if _, err := env.Engine.CompleteItem(env.Ctx, doneItem.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	mk("far", "2026-03-01", resolve.Draft{})

	got, err := env.Engine.UpcomingItems(env.Ctx, "", 14, "2026-01-12")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	want := []string{early.ID, highLate.ID, lowLate.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %q (%s), want %q", i, got[i].ID, got[i].Title, id)
		}
	}
}

func TestUpcomingWhoFilter(t *testing.T) {
	env := newTestEnv(t)
	for _, who := range []string{"Alice", "Bob"} {
		if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
			Who: who, Title: "task",
			Fields: resolve.Draft{DueDate: strp("2026-01-13"), DueDateSet: true},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := env.Engine.UpcomingItems(env.Ctx, "Bob", 7, "2026-01-12")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(got) != 1 || got[0].Who != "Bob" {
		t.Fatalf("who filter failed: %+v", got)
	}
}

func TestSortKeyAllowList(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, key := range []string{"due_date", "priority_score", "importance", "urgency", "size", "value", "planned_minutes", "created_at", "updated_at"} {
		if _, err := env.Engine.SortedItems(env.Ctx, repo.ItemFilters{}, key, false); err != nil {
			t.Fatalf("allowed key %q rejected: %v", key, err)
		}
	}

	var sErr domain.SortKeyError
	for _, key := range []string{"title", "who; DROP TABLE action_items", "bogus"} {
		_, err := env.Engine.SortedItems(env.Ctx, repo.ItemFilters{}, key, false)
		if !errors.As(err, &sErr) {
			t.Fatalf("key %q should be rejected: %v", key, err)
		}
	}
}

func TestSortedItemsOrder(t *testing.T) {
	env := newTestEnv(t)
	clock := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	env.Engine.Now = func() time.Time { return clock }

	scores := map[string]resolve.Draft{
		"mid": {Importance: intp(5), ImportanceSet: true, Urgency: intp(5), UrgencySet: true,
			Size: intp(4), SizeSet: true, Value: intp(4), ValueSet: true},
		"top": {Importance: intp(20), ImportanceSet: true, Urgency: intp(20), UrgencySet: true,
			Size: intp(16), SizeSet: true, Value: intp(16), ValueSet: true},
		"parked": {Importance: intp(20), ImportanceSet: true, Urgency: intp(20), UrgencySet: true,
			Size: intp(0), SizeSet: true, Value: intp(16), ValueSet: true},
	}
	for _, title := range []string{"mid", "top", "parked"} {
		if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
			Who: "Alice", Title: title, Fields: scores[title],
		}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		clock = clock.Add(time.Minute)
	}

	got, err := env.Engine.SortedItems(env.Ctx, repo.ItemFilters{}, "priority_score", true)
	if err != nil {
		t.Fatalf("sorted: %v", err)
	}
	titles := make([]string, len(got))
	for i, it := range got {
		titles[i] = it.Title
	}
	// a parked size zeroes the whole score, so that item sorts last
	want := []string{"top", "mid", "parked"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

func TestCompletedItems(t *testing.T) {
	env := newTestEnv(t)
	clock := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	env.Engine.Now = func() time.Time { return clock }

	var ids []string
	for _, title := range []string{"first", "second"} {
		it, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: title})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := env.Engine.CompleteItem(env.Ctx, it.ID); err != nil {
			t.Fatalf("complete: %v", err)
		}
		ids = append(ids, it.ID)
		clock = clock.Add(24 * time.Hour)
	}
	// open item stays out
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "open"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.Engine.CompletedItems(env.Ctx, "", "2026-01-12T00:00:00Z")
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[1] || got[1].ID != ids[0] {
		t.Fatalf("completed order wrong: %+v", got)
	}

	// since cut-off excludes the first completion
	got, err = env.Engine.CompletedItems(env.Ctx, "", "2026-01-13T00:00:00Z")
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(got) != 1 || got[0].ID != ids[1] {
		t.Fatalf("since filter wrong: %+v", got)
	}
}

func TestSearchItems(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
		Who: "Alice", Title: "Write quarterly report",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
		Who: "Alice", Title: "Groceries", Description: strp("weekly report of spending"),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "Unrelated"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.Engine.SearchItems(env.Ctx, "report")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 matches, got %d", len(got))
	}
}

func TestStatsPlannedVsActual(t *testing.T) {
	env := newTestEnv(t)
	it, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
		Who: "Alice", Title: "x",
		Fields: resolve.Draft{PlannedMinutes: intp(60), PlannedMinutesSet: true},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, minutes := range []int{25, 10} {
		if _, err := env.Engine.AddWorkLog(env.Ctx, engine.AddWorkLogOptions{
			ItemID: it.ID, StartedAt: "2026-01-12T08:00:00Z", Minutes: minutes,
		}); err != nil {
			t.Fatalf("worklog: %v", err)
		}
	}
	// no plan, no logs: invisible in stats
	if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "idle"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := env.Engine.Stats(env.Ctx, "Alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.PlannedMinutes != 60 || row.ActualMinutes != 35 || row.Variance != -25 {
		t.Fatalf("row = %+v", row)
	}
	total, err := env.Engine.Repo.TotalActualMinutes(env.Ctx, it.ID)
	if err != nil || total != 35 {
		t.Fatalf("total actual = %d, %v", total, err)
	}
}

func TestItemTree(t *testing.T) {
	env := newTestEnv(t)
	root, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{Who: "Alice", Title: "root"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	child, err := env.Engine.CreateSubItem(env.Ctx, root.ID, engine.CreateItemOptions{Who: "Alice", Title: "child"})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := env.Engine.CreateSubItem(env.Ctx, child.ID, engine.CreateItemOptions{Who: "Alice", Title: "grandchild"}); err != nil {
		t.Fatalf("create grandchild: %v", err)
	}

	tree, err := env.Engine.ItemTree(env.Ctx, root.ID)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Item.ID != child.ID {
		t.Fatalf("tree level 1 wrong: %+v", tree)
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].Item.Title != "grandchild" {
		t.Fatalf("tree level 2 wrong: %+v", tree.Children[0])
	}
}

func TestFieldPickers(t *testing.T) {
	env := newTestEnv(t)
	for _, c := range []struct{ who, group string }{
		{"Alice", "Work"},
		{"Alice", "Home"},
		{"Bob", "Work"},
	} {
		if _, err := env.Engine.CreateItem(env.Ctx, engine.CreateItemOptions{
			Who: c.who, Title: "x",
			Fields: resolve.Draft{Group: strp(c.group), GroupSet: true},
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	p, err := env.Engine.FieldPickers(env.Ctx)
	if err != nil {
		t.Fatalf("pickers: %v", err)
	}
	if len(p.Who) != 2 || p.Who[0] != "Alice" || p.Who[1] != "Bob" {
		t.Fatalf("who = %v", p.Who)
	}
	if len(p.Groups) != 2 {
		t.Fatalf("groups = %v", p.Groups)
	}
	if len(p.Categories) != 0 {
		t.Fatalf("categories = %v", p.Categories)
	}
}
