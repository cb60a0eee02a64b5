// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Command roomctl is a terminal client for an emshift server. It keeps a
// local copy of the counter tree, joins sync rooms as a writer or a
// read-only auditor, and exposes the same increment semantics the web
// client has.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkovalr/emshift/internal/localstate"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/sync"
	"github.com/dkovalr/emshift/internal/tracker"
)

var (
	serverURL string
	dataDir   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "roomctl",
	Short:         "EMShift room client",
	Long:          "roomctl tracks shift activity from the terminal and syncs it with an emshift server room.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "error"
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "emshift server base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "local state directory (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(sharexCmd)
	rootCmd.AddCommand(incCmd)
	rootCmd.AddCommand(decCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}

// wsURL derives the sync endpoint from the REST base URL.
func wsURL(base string) string {
	u := strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func stateDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(cfg, "emshift"), nil
}

// openState opens the local store and loads the saved tree into a fresh
// canonical catalog. Missing state is not an error; the tree starts empty.
func openState() (*localstate.Store, *tracker.Tree, error) {
	dir, err := stateDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating state dir: %w", err)
	}
	state, err := localstate.Open(localstate.Config{Path: dir})
	if err != nil {
		return nil, nil, fmt.Errorf("opening local state: %w", err)
	}
	tree := tracker.NewTree()
	if snap, ok, err := state.LoadState(); err != nil {
		state.Close()
		return nil, nil, fmt.Errorf("loading saved state: %w", err)
	} else if ok {
		tree.Merge(snap, tracker.OriginRemote)
	}
	return state, tree, nil
}

func newSession(tree *tracker.Tree, state *localstate.Store) *sync.Session {
	return sync.NewSession(sync.Config{
		WSURL:  wsURL(serverURL),
		APIURL: strings.TrimSuffix(serverURL, "/"),
	}, tree, state)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
