// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkovalr/emshift/internal/actions"
	"github.com/dkovalr/emshift/internal/shift"
	"github.com/dkovalr/emshift/internal/tracker"
)

var (
	trackPush   bool
	historySave bool
)

var incCmd = &cobra.Command{
	Use:   "inc <action | category index>",
	Short: "Increment a counter",
	Long: `Inc bumps one counter. A single argument is treated as a gateway
action (pmp, pills, vaccine, medcert) and resolved against the current
shift; two arguments name a category id and an item index directly.
With --push the edit is also synced to the saved room.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCounterEdit(cmd, args, (*tracker.Tree).Increment, "+1")
	},
}

var decCmd = &cobra.Command{
	Use:   "dec <action | category index>",
	Short: "Decrement a counter",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCounterEdit(cmd, args, (*tracker.Tree).Decrement, "-1")
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the shift report for the current counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()
		fmt.Println(tracker.FormatReport(tree.Categories(), time.Now()))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved shifts, or archive the current one",
	Long: `History lists previously saved shifts. With --save the current
counters are archived as a new entry and then reset to zero, the usual
end-of-shift step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()

		entries, _, err := state.LoadHistory()
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		if historySave {
			entry := tracker.NewHistoryEntry(tree.Categories(), time.Now())
			if entry == nil {
				return fmt.Errorf("nothing to save; all counters are zero")
			}
			entries = append([]tracker.HistoryEntry{*entry}, entries...)
			if err := state.SaveHistory(entries); err != nil {
				return fmt.Errorf("saving history: %w", err)
			}
			tree.ResetAllQuiet()
			if err := state.SaveState(tree.Snapshot()); err != nil {
				return fmt.Errorf("saving state: %w", err)
			}
			fmt.Printf("Shift %s archived (%d points). Counters reset.\n", entry.Date, entry.Total)
			return nil
		}

		if len(entries) == 0 {
			fmt.Println("No saved shifts.")
			return nil
		}
		for _, e := range entries {
			var parts []string
			for _, d := range e.Details {
				parts = append(parts, fmt.Sprintf("%s %d", d.Name, d.Total))
			}
			fmt.Printf("%s  %4d  %s\n", e.Date, e.Total, strings.Join(parts, ", "))
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero all counters without saving a history entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()
		tree.ResetAllQuiet()
		if err := state.SaveState(tree.Snapshot()); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
		fmt.Println("Counters reset.")
		return nil
	},
}

// runCounterEdit applies an increment or decrement, persisting locally and
// optionally pushing through the saved room.
func runCounterEdit(cmd *cobra.Command, args []string, edit func(*tracker.Tree, string, int) error, verb string) error {
	state, tree, err := openState()
	if err != nil {
		return err
	}
	defer state.Close()

	catID, idx, err := resolveTarget(args)
	if err != nil {
		return err
	}

	session := newSession(tree, state)
	defer session.Close()

	if trackPush {
		room, ok, err := state.LoadRoom()
		if err != nil {
			return fmt.Errorf("loading saved room: %w", err)
		}
		if !ok {
			return fmt.Errorf("no saved room; create or join one first")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := session.Connect(ctx, room, false); err != nil {
			return err
		}
	}

	if err := edit(tree, catID, idx); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", verb, itemLabel(tree, catID, idx))
	return nil
}

// resolveTarget maps command arguments to a category and item index. One
// argument is a gateway action resolved for the current shift; two are a
// literal category id and index.
func resolveTarget(args []string) (string, int, error) {
	if len(args) == 1 {
		action := strings.ToLower(args[0])
		target, err := actions.Resolve(action, shift.Now())
		if err != nil {
			return "", 0, err
		}
		return target.CategoryID, target.ItemIndex, nil
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("item index must be a number, got %q", args[1])
	}
	return strings.ToLower(args[0]), idx, nil
}

func itemLabel(tree *tracker.Tree, catID string, idx int) string {
	for _, cat := range tree.Categories() {
		if cat.ID != catID || idx >= len(cat.Items) {
			continue
		}
		return fmt.Sprintf("%s (%s, now %d)", cat.Items[idx].Name, cat.Name, cat.Items[idx].Quantity)
	}
	return catID
}

func init() {
	incCmd.Flags().BoolVar(&trackPush, "push", false, "sync the edit to the saved room")
	decCmd.Flags().BoolVar(&trackPush, "push", false, "sync the edit to the saved room")
	historyCmd.Flags().BoolVar(&historySave, "save", false, "archive current counters and reset")
}
