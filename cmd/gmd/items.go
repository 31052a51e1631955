package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"getmoredone/internal/app"
	"getmoredone/internal/calendar"
	"getmoredone/internal/engine"
	"getmoredone/internal/factors"
	"getmoredone/internal/repo"
	"getmoredone/internal/resolve"
)

// factorFlags collects the resolvable item fields shared by create, edit,
// sub, and defaults set. Factor flags accept a label (High, XL, P) or a raw
// weight; "none" clears the field explicitly.
type factorFlags struct {
	importance string
	urgency    string
	size       string
	value      string
	group      string
	category   string
	planned    int
	start      string
	due        string
}

func newFactorFlags() *factorFlags { return &factorFlags{} }

func (f *factorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.importance, "importance", "", "importance label or weight (Critical/High/Medium/Low)")
	cmd.Flags().StringVar(&f.urgency, "urgency", "", "urgency label or weight (Critical/High/Medium/Low)")
	cmd.Flags().StringVar(&f.size, "size", "", "size label or weight (XL/L/M/S/P)")
	cmd.Flags().StringVar(&f.value, "value", "", "value label or weight (XL/L/M/S/P)")
	cmd.Flags().StringVar(&f.group, "group", "", "group; 'none' clears")
	cmd.Flags().StringVar(&f.category, "category", "", "category; 'none' clears")
	cmd.Flags().IntVar(&f.planned, "planned", 0, "planned minutes")
	cmd.Flags().StringVar(&f.start, "start", "", "start date YYYY-MM-DD; 'none' clears")
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD; 'none' clears")
}

// draft converts changed flags into a resolution draft. Unchanged flags stay
// untouched so defaults resolution can fill them.
func (f *factorFlags) draft(cmd *cobra.Command) (resolve.Draft, error) {
	var d resolve.Draft
	var err error
	if cmd.Flags().Changed("importance") {
		d.ImportanceSet = true
		if d.Importance, err = parseFactor(factors.Importance, f.importance); err != nil {
			return d, err
		}
	}
	if cmd.Flags().Changed("urgency") {
		d.UrgencySet = true
		if d.Urgency, err = parseFactor(factors.Urgency, f.urgency); err != nil {
			return d, err
		}
	}
	if cmd.Flags().Changed("size") {
		d.SizeSet = true
		if d.Size, err = parseFactor(factors.Size, f.size); err != nil {
			return d, err
		}
	}
	if cmd.Flags().Changed("value") {
		d.ValueSet = true
		if d.Value, err = parseFactor(factors.Value, f.value); err != nil {
			return d, err
		}
	}
	if cmd.Flags().Changed("group") {
		d.GroupSet = true
		d.Group = clearableString(f.group)
	}
	if cmd.Flags().Changed("category") {
		d.CategorySet = true
		d.Category = clearableString(f.category)
	}
	if cmd.Flags().Changed("planned") {
		d.PlannedMinutesSet = true
		d.PlannedMinutes = &f.planned
	}
	if cmd.Flags().Changed("start") {
		d.StartDateSet = true
		d.StartDate = clearableString(f.start)
	}
	if cmd.Flags().Changed("due") {
		d.DueDateSet = true
		d.DueDate = clearableString(f.due)
	}
	return d, nil
}

// parseFactor accepts a scale label, a raw weight, or "none" to clear.
func parseFactor(f factors.Factor, raw string) (*int, error) {
	if strings.EqualFold(raw, "none") {
		return nil, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return &n, nil
	}
	w, err := factors.Weight(f, raw)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func clearableString(raw string) *string {
	if strings.EqualFold(raw, "none") {
		return nil
	}
	return &raw
}

func itemCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "item", Short: "Manage action items"}
	cmd.AddCommand(itemCreateCmd())
	cmd.AddCommand(itemEditCmd())
	cmd.AddCommand(itemGetCmd())
	cmd.AddCommand(itemListCmd())
	cmd.AddCommand(itemUpcomingCmd())
	cmd.AddCommand(itemCompletedCmd())
	cmd.AddCommand(itemSearchCmd())
	cmd.AddCommand(itemCompleteCmd())
	cmd.AddCommand(itemCancelCmd())
	cmd.AddCommand(itemCompleteCreateCmd())
	cmd.AddCommand(itemDuplicateCmd())
	cmd.AddCommand(itemSubCmd())
	cmd.AddCommand(itemRescheduleCmd())
	cmd.AddCommand(itemDeleteCmd())
	cmd.AddCommand(itemTreeCmd())
	cmd.AddCommand(itemLinksCmd())
	return cmd
}

func itemCreateCmd() *cobra.Command {
	var who, title, description string
	ff := newFactorFlags()
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := ff.draft(cmd)
			if err != nil {
				return err
			}
			opts := engine.CreateItemOptions{Who: who, Title: title, Fields: draft}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.CreateItem(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "item owner (required)")
	cmd.Flags().StringVar(&title, "title", "", "item title (required)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	ff.register(cmd)
	_ = cmd.MarkFlagRequired("who")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func itemEditCmd() *cobra.Command {
	var who, title, description, parent string
	ff := newFactorFlags()
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := ff.draft(cmd)
			if err != nil {
				return err
			}
			opts := engine.EditItemOptions{Fields: draft}
			if cmd.Flags().Changed("who") {
				opts.Who = &who
			}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.DescriptionSet = true
				opts.Description = clearableString(description)
			}
			if cmd.Flags().Changed("parent") {
				opts.ParentIDSet = true
				opts.ParentID = clearableString(parent)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.EditItem(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "new owner; untouched fields re-resolve from the new who's defaults")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "description; 'none' clears")
	cmd.Flags().StringVar(&parent, "parent", "", "new parent id; 'none' promotes to root")
	ff.register(cmd)
	return cmd
}

func itemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show item detail with links, logs, and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				detail, err := a.Engine.GetItemDetail(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(detail)
			})
		},
	}
}

func itemListCmd() *cobra.Command {
	var f repo.ItemFilters
	var sortKey string
	var desc bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items sorted by a validated key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.SortedItems(ctx, f, sortKey, desc)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItems(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (open/completed/canceled)")
	cmd.Flags().StringVar(&f.Who, "who", "", "who filter")
	cmd.Flags().StringVar(&f.Group, "group", "", "group filter")
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&f.Parent, "parent", "", "children of this item only")
	cmd.Flags().BoolVar(&f.RootOnly, "roots", false, "root items only")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key (default priority_score)")
	cmd.Flags().BoolVar(&desc, "desc", false, "descending order")
	return cmd
}

func itemUpcomingCmd() *cobra.Command {
	var who, ref string
	var window int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Open items due inside the window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.UpcomingItems(ctx, who, window, ref)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItems(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who filter")
	cmd.Flags().IntVar(&window, "window", 7, "window in days")
	cmd.Flags().StringVar(&ref, "ref", "", "reference date YYYY-MM-DD (default today)")
	return cmd
}

func itemCompletedCmd() *cobra.Command {
	var who, since string
	cmd := &cobra.Command{
		Use:   "completed",
		Short: "Recently completed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.CompletedItems(ctx, who, since)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItems(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who filter")
	cmd.Flags().StringVar(&since, "since", "", "RFC3339 lower bound on completion time")
	return cmd
}

func itemSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search titles and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.SearchItems(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItems(items)
				return nil
			})
		},
	}
}

func itemCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an item completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.CompleteItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
}

func itemCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an item (terminal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.CancelItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
}

func duplicateFlags(cmd *cobra.Command, title, start, due, note *string) {
	cmd.Flags().StringVar(title, "title", "", "title for the copy")
	cmd.Flags().StringVar(start, "start", "", "start date for the copy; 'none' clears")
	cmd.Flags().StringVar(due, "due", "", "due date for the copy; 'none' clears")
	cmd.Flags().StringVar(note, "note", "", "description for the copy")
}

func duplicateOptionsFromFlags(cmd *cobra.Command, title, start, due, note string) engine.DuplicateOptions {
	var opts engine.DuplicateOptions
	if cmd.Flags().Changed("title") {
		opts.Title = &title
	}
	if cmd.Flags().Changed("start") {
		opts.StartDateSet = true
		opts.StartDate = clearableString(start)
	}
	if cmd.Flags().Changed("due") {
		opts.DueDateSet = true
		opts.DueDate = clearableString(due)
	}
	if cmd.Flags().Changed("note") {
		opts.Note = &note
	}
	return opts
}

func itemCompleteCreateCmd() *cobra.Command {
	var title, start, due, note string
	cmd := &cobra.Command{
		Use:   "complete-create <id>",
		Short: "Complete an item and create its follow-up copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := duplicateOptionsFromFlags(cmd, title, start, due, note)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				done, dup, err := a.Engine.CompleteAndDuplicate(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"completed": done, "created": dup})
			})
		},
	}
	duplicateFlags(cmd, &title, &start, &due, &note)
	return cmd
}

func itemDuplicateCmd() *cobra.Command {
	var title, start, due, note string
	cmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Create an open copy of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := duplicateOptionsFromFlags(cmd, title, start, due, note)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				dup, err := a.Engine.DuplicateItem(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(dup)
			})
		},
	}
	duplicateFlags(cmd, &title, &start, &due, &note)
	return cmd
}

func itemSubCmd() *cobra.Command {
	var who, title, description string
	ff := newFactorFlags()
	cmd := &cobra.Command{
		Use:   "sub <parent-id>",
		Short: "Create a sub-item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := ff.draft(cmd)
			if err != nil {
				return err
			}
			opts := engine.CreateItemOptions{Who: who, Title: title, Fields: draft}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.CreateSubItem(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "item owner (required)")
	cmd.Flags().StringVar(&title, "title", "", "item title (required)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	ff.register(cmd)
	_ = cmd.MarkFlagRequired("who")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func itemRescheduleCmd() *cobra.Command {
	var start, due, reason string
	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Move an item's dates, recording the move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts engine.RescheduleOptions
			if cmd.Flags().Changed("start") {
				opts.StartDateSet = true
				opts.StartDate = clearableString(start)
			}
			if cmd.Flags().Changed("due") {
				opts.DueDateSet = true
				opts.DueDate = clearableString(due)
			}
			if cmd.Flags().Changed("reason") {
				opts.Reason = &reason
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				it, err := a.Engine.RescheduleItem(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start date; 'none' clears")
	cmd.Flags().StringVar(&due, "due", "", "new due date; 'none' clears")
	cmd.Flags().StringVar(&reason, "reason", "", "why the item moved")
	return cmd
}

func itemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item; children are promoted to root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.DeleteItem(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func itemTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <id>",
		Short: "Show the subtree rooted at an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tree, err := a.Engine.ItemTree(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tree)
				}
				printTree(tree, 0)
				return nil
			})
		},
	}
}

func printTree(node engine.TreeNode, depth int) {
	fmt.Printf("%s%s  %s (score %d, %s)\n",
		strings.Repeat("  ", depth), node.Item.ID, node.Item.Title, node.Item.PriorityScore, node.Item.Status)
	for _, child := range node.Children {
		printTree(child, depth+1)
	}
}

func itemLinksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "links", Short: "Manage item links"}

	var url, label string
	add := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Attach a URL to an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var lbl *string
				if cmd.Flags().Changed("label") {
					lbl = &label
				}
				link, err := a.Engine.AddItemLink(ctx, args[0], url, lbl)
				if err != nil {
					return err
				}
				return printJSONOrTable(link)
			})
		},
	}
	add.Flags().StringVar(&url, "url", "", "URL to attach (required)")
	add.Flags().StringVar(&label, "label", "", "label")
	_ = add.MarkFlagRequired("url")

	list := &cobra.Command{
		Use:   "list <item-id>",
		Short: "List an item's links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				links, err := a.Engine.ItemLinks(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(links)
			})
		},
	}

	cmd.AddCommand(add)
	cmd.AddCommand(list)
	return cmd
}

func blockCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "block", Short: "Plan time blocks"}
	cmd.AddCommand(blockAddCmd())
	cmd.AddCommand(blockListCmd())
	cmd.AddCommand(blockDeleteCmd())
	return cmd
}

func blockAddCmd() *cobra.Command {
	var item, date, start, end, label string
	var publish bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Plan a time block, optionally publishing it to the calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				opts := engine.AddTimeBlockOptions{BlockDate: date, StartTime: start, EndTime: end}
				if cmd.Flags().Changed("item") {
					opts.ItemID = &item
				}
				if cmd.Flags().Changed("label") {
					opts.Label = &label
				}
				b, err := a.Engine.AddTimeBlock(ctx, opts)
				if err != nil {
					return err
				}
				if publish {
					title := strValue(b.Label)
					if title == "" && b.ItemID != nil {
						if it, err := a.Engine.GetItem(ctx, *b.ItemID); err == nil {
							title = it.Title
						}
					}
					publishBlock(ctx, a, b.ItemID, calendar.Event{
						Title:     title,
						Date:      b.BlockDate,
						StartTime: b.StartTime,
						EndTime:   b.EndTime,
						ItemID:    strValue(b.ItemID),
					})
				}
				return printJSONOrTable(b)
			})
		},
	}
	cmd.Flags().StringVar(&item, "item", "", "linked item id")
	cmd.Flags().StringVar(&date, "date", "", "block date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&start, "start", "", "start time HH:MM (required)")
	cmd.Flags().StringVar(&end, "end", "", "end time HH:MM (required)")
	cmd.Flags().StringVar(&label, "label", "", "label")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish to the configured calendar")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// publishBlock is best effort: the block is already committed, so calendar
// failures only warn.
func publishBlock(ctx context.Context, a *app.App, itemID *string, ev calendar.Event) {
	ref, err := a.Calendar.Publish(ctx, ev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warn: calendar publish failed:", err)
		return
	}
	if itemID != nil && ref != "" {
		label := "calendar"
		if _, err := a.Engine.AddItemLink(ctx, *itemID, ref, &label); err != nil {
			fmt.Fprintln(os.Stderr, "warn: could not store calendar link:", err)
		}
	}
}

func blockListCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Blocks planned for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				blocks, err := a.Engine.TimeBlocksForDate(ctx, date)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(blocks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Date", "Start", "End", "Minutes", "Label", "Item"})
				for _, b := range blocks {
					tw.AppendRow(table.Row{b.ID, b.BlockDate, b.StartTime, b.EndTime, b.PlannedMinutes, strValue(b.Label), strValue(b.ItemID)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func blockDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a planned block; the linked item is untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.DeleteTimeBlock(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}
