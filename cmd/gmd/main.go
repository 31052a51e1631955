package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"getmoredone/internal/app"
	"getmoredone/internal/db"
	"getmoredone/internal/domain"
	"getmoredone/internal/factors"
	"getmoredone/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "gmd",
	Short: "GetMoreDone CLI",
	Long: `GetMoreDone tracks action items with priority scoring and layered defaults.
- Items carry four factors (importance, urgency, size, value); priority is their product, and a parked size or value zeroes it.
- Fields you leave blank resolve from per-who defaults, then system defaults.
- Upcoming shows open items due inside a window; items without a due date stay out.
- The timer runs one block at a time and records a work log when it stops.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GMD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(defaultsCmd())
	rootCmd.AddCommand(blockCmd())
	rootCmd.AddCommand(worklogCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(timerCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// withApp bootstraps the workspace and runs fn against it.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func strValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func factorCell(f factors.Factor, v *int) string {
	if v == nil {
		return ""
	}
	label := factors.Label(f, *v)
	if label == "" {
		return fmt.Sprintf("%d", *v)
	}
	return fmt.Sprintf("%s(%d)", label, *v)
}

func renderItems(items []domain.ActionItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Who", "Title", "Due", "Score", "Imp", "Urg", "Size", "Val", "Status"})
	for _, it := range items {
		tw.AppendRow(table.Row{
			it.ID, it.Who, it.Title, strValue(it.DueDate), it.PriorityScore,
			factorCell(factors.Importance, it.Importance),
			factorCell(factors.Urgency, it.Urgency),
			factorCell(factors.Size, it.Size),
			factorCell(factors.Value, it.Value),
			it.Status,
		})
	}
	tw.Render()
}

func defaultsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "defaults", Short: "Manage defaults profiles"}
	cmd.AddCommand(defaultsShowCmd())
	cmd.AddCommand(defaultsSetCmd())
	return cmd
}

func defaultsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show all defaults profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				profiles, err := a.Engine.ListDefaults(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(profiles)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Scope", "Key", "Imp", "Urg", "Size", "Val", "Group", "Category", "Planned", "Start+", "Due+"})
				for _, p := range profiles {
					tw.AppendRow(table.Row{
						p.ScopeType, p.ScopeKey,
						factorCell(factors.Importance, p.Importance),
						factorCell(factors.Urgency, p.Urgency),
						factorCell(factors.Size, p.Size),
						factorCell(factors.Value, p.Value),
						strValue(p.Group), strValue(p.Category),
						intCell(p.PlannedMinutes), intCell(p.StartOffsetDays), intCell(p.DueOffsetDays),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func defaultsSetCmd() *cobra.Command {
	var who string
	ff := newFactorFlags()
	var startOffset, dueOffset int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set defaults for the system scope or one who",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.DefaultsProfile{ScopeType: domain.ScopeSystem}
			if who != "" {
				p.ScopeType = domain.ScopeWho
				p.ScopeKey = who
			}
			draft, err := ff.draft(cmd)
			if err != nil {
				return err
			}
			p.Importance = draft.Importance
			p.Urgency = draft.Urgency
			p.Size = draft.Size
			p.Value = draft.Value
			p.Group = draft.Group
			p.Category = draft.Category
			p.PlannedMinutes = draft.PlannedMinutes
			if cmd.Flags().Changed("start-offset") {
				p.StartOffsetDays = &startOffset
			}
			if cmd.Flags().Changed("due-offset") {
				p.DueOffsetDays = &dueOffset
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.SaveDefaults(ctx, p); err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who scope; empty sets the system defaults")
	ff.register(cmd)
	cmd.Flags().IntVar(&startOffset, "start-offset", 0, "days from today for the default start date")
	cmd.Flags().IntVar(&dueOffset, "due-offset", 0, "days from today for the default due date")
	return cmd
}

func statsCmd() *cobra.Command {
	var who string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Planned vs actual minutes per item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				rows, err := a.Engine.Stats(ctx, who)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Who", "Planned", "Actual", "Variance"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.ItemID, r.Title, r.Who, r.PlannedMinutes, r.ActualMinutes, r.Variance})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&who, "who", "", "who filter")
	return cmd
}

func worklogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "worklog", Short: "Inspect work logs"}
	var item, since string
	list := &cobra.Command{
		Use:   "list",
		Short: "List work logs for an item or since an instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var logs []domain.WorkLog
				var err error
				switch {
				case item != "":
					logs, err = a.Engine.WorkLogsForItem(ctx, item)
				default:
					logs, err = a.Engine.WorkLogsSince(ctx, since)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(logs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Item", "Started", "Ended", "Minutes", "Note"})
				for _, l := range logs {
					tw.AppendRow(table.Row{l.ID, l.ItemID, l.StartedAt, strValue(l.EndedAt), l.Minutes, strValue(l.Note)})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&item, "item", "", "item id")
	list.Flags().StringVar(&since, "since", "", "RFC3339 lower bound")
	cmd.AddCommand(list)
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Audit event log"}
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				evts, err := a.Engine.RecentEvents(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				for i := len(evts) - 1; i >= 0; i-- {
					e := evts[i]
					fmt.Printf("%s  %-18s %s %s  %s\n", e.TS, e.Type, e.EntityKind, e.EntityID, e.Payload)
				}
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 50, "number of events")
	cmd.AddCommand(tail)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("listening on %s\n", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7360", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}
