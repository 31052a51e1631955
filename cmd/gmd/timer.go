package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"getmoredone/internal/app"
	"getmoredone/internal/engine"
	"getmoredone/internal/timer"
)

func timerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "timer", Short: "Run focus sessions against an item"}
	cmd.AddCommand(timerRunCmd())
	return cmd
}

func timerRunCmd() *cobra.Command {
	var block, brk, warn int
	cmd := &cobra.Command{
		Use:   "run <item-id>",
		Short: "Start an interactive focus session",
		Long: `Starts a timer for the item and renders its state once per second.
Work time accrues only while the timer is running; the configured break is
carved out of the block. Commands read from stdin:

  pause     stop accruing work time
  resume    continue the session
  stop      end the session and record a work log
  finish    stop, log, and complete the item
  continue  stop, log, complete, and create the follow-up copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cfg := a.TimerConfig()
				if cmd.Flags().Changed("block") {
					cfg.BlockMinutes = block
				}
				if cmd.Flags().Changed("break") {
					cfg.BreakMinutes = brk
				}
				if cmd.Flags().Changed("warn") {
					cfg.WarnThreshold = warn
				}
				return runSession(ctx, a, args[0], cfg)
			})
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "block length in minutes (overrides config)")
	cmd.Flags().IntVar(&brk, "break", 0, "break length in minutes (overrides config)")
	cmd.Flags().IntVar(&warn, "warn", 0, "warn when this many minutes remain (overrides config)")
	return cmd
}

func runSession(ctx context.Context, a *app.App, itemID string, cfg timer.Config) error {
	it, err := a.Engine.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	s, err := a.Timer.Begin(it.ID, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("working on %s  (block %dm, break %dm)\n", it.Title, cfg.BlockMinutes, cfg.BreakMinutes)

	commands := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			commands <- strings.TrimSpace(sc.Text())
		}
		close(commands)
	}()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	warned := false

	for {
		select {
		case <-ctx.Done():
			if _, err := a.Timer.Stop(ctx, s); err != nil {
				return err
			}
			fmt.Println("\nsession stopped, work log recorded")
			return nil

		case now := <-tick.C:
			snap := s.Tick(now)
			renderSnapshot(snap)
			if snap.Warning && !warned {
				fmt.Printf("\nwarn: %d minutes left in the block\n", snap.RemainingSeconds/60)
				warned = true
			}
			if snap.State == timer.StateStopped {
				log, err := a.Timer.Stop(ctx, s)
				if err != nil {
					return err
				}
				fmt.Printf("\nblock done, logged %d minutes\n", log.Minutes)
				return nil
			}

		case cmdLine, ok := <-commands:
			if !ok {
				_, err := a.Timer.Stop(ctx, s)
				fmt.Println("\nsession stopped, work log recorded")
				return err
			}
			done, err := handleTimerCommand(ctx, a, s, cmdLine)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func handleTimerCommand(ctx context.Context, a *app.App, s *timer.Session, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "pause":
		s.Pause(time.Now())
		fmt.Println("\npaused")
	case "resume":
		s.Resume(time.Now())
		fmt.Println("\nrunning")
	case "stop":
		log, err := a.Timer.Stop(ctx, s)
		if err != nil {
			return false, err
		}
		fmt.Printf("\nstopped, logged %d minutes\n", log.Minutes)
		return true, nil
	case "finish":
		it, err := a.Timer.Finish(ctx, s)
		if err != nil {
			return false, err
		}
		fmt.Printf("\ncompleted %s\n", it.Title)
		return true, nil
	case "continue":
		var opts engine.DuplicateOptions
		if rest = strings.TrimSpace(rest); rest != "" {
			opts.Note = &rest
		}
		dup, err := a.Timer.Continue(ctx, s, opts)
		if err != nil {
			return false, err
		}
		fmt.Printf("\ncompleted, follow-up %s created\n", dup.ID)
		return true, nil
	case "":
	default:
		fmt.Println("\ncommands: pause resume stop finish continue [note]")
	}
	return false, nil
}

func renderSnapshot(snap timer.Snapshot) {
	switch snap.State {
	case timer.StateBreak:
		fmt.Printf("\r[break]   %s of break left   ", mmss(snap.BreakSeconds))
	case timer.StatePaused:
		fmt.Printf("\r[paused]  %s work left        ", mmss(snap.RemainingSeconds))
	default:
		fmt.Printf("\r[work]    %s left, %dm elapsed  ", mmss(snap.RemainingSeconds), snap.ElapsedMinutes)
	}
}

func mmss(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
