// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/sync"
	"github.com/dkovalr/emshift/internal/tracker"
)

var (
	createNickname string
	createStaticID string
	joinAudit      bool
	tokenAudit     bool
	sharexOutput   string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new sync room on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()

		session := newSession(tree, state)
		defer session.Close()

		room, err := session.CreateRoom(cmd.Context(), createNickname, createStaticID)
		if err != nil {
			return err
		}
		if err := state.SaveRoom(room); err != nil {
			return fmt.Errorf("saving room code: %w", err)
		}
		if err := session.Connect(cmd.Context(), room, false); err != nil {
			return fmt.Errorf("room created but join failed: %w", err)
		}
		fmt.Println("Room created:", room)
		fmt.Println("Share token: ", sync.EncodeToken(room, false))
		fmt.Println("Audit token: ", sync.EncodeToken(room, true))
		return nil
	},
}

var joinCmd = &cobra.Command{
	Use:   "join [room-or-token]",
	Short: "Join a room and follow it until interrupted",
	Long: `Join connects to a sync room and stays attached, merging remote
edits into the local tree as they arrive. The argument is a 6-character
room code or a share token; with no argument the last joined room is
reused. Pass --audit to follow read-only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()

		session := newSession(tree, state)
		defer session.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		switch {
		case len(args) == 1 && roomcode.Valid(args[0]):
			err = session.Connect(ctx, args[0], joinAudit)
		case len(args) == 1:
			err = session.ConnectToken(ctx, args[0])
		default:
			room, ok, lerr := state.LoadRoom()
			if lerr != nil {
				return fmt.Errorf("loading saved room: %w", lerr)
			}
			if !ok {
				return fmt.Errorf("no saved room; pass a room code or token")
			}
			err = session.Connect(ctx, room, joinAudit)
		}
		if err != nil {
			return err
		}

		mode := "writer"
		if session.Audit() {
			mode = "audit"
		}
		fmt.Printf("Joined %s (%s). Total: %d. Ctrl-C to leave.\n",
			session.Room(), mode, tree.GrandTotal())

		sub := tree.Subscribe(func(origin tracker.Origin) {
			if origin == tracker.OriginRemote {
				fmt.Printf("[%s] remote update, total now %d\n",
					time.Now().Format("15:04:05"), tree.GrandTotal())
			}
		})
		defer tree.Unsubscribe(sub)

		select {
		case <-ctx.Done():
		case <-session.Done():
			fmt.Println("Connection closed by server.")
		}
		return nil
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Leave and forget the saved room",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, tree, err := openState()
		if err != nil {
			return err
		}
		defer state.Close()

		session := newSession(tree, state)
		defer session.Close()
		session.Disconnect()
		fmt.Println("Room forgotten.")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <room>",
	Short: "Print the share token for a room code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := roomcode.Normalize(args[0])
		if !roomcode.Valid(room) {
			return fmt.Errorf("invalid room code %q", args[0])
		}
		fmt.Println(sync.EncodeToken(room, tokenAudit))
		return nil
	},
}

var sharexCmd = &cobra.Command{
	Use:   "sharex <room> <action>",
	Short: "Download a ShareX uploader config for a room",
	Long: `Sharex fetches the .sxcu uploader config bound to a room and an
action (pmp, pills, vaccine, medcert) and writes it next to the current
directory, ready to import into ShareX.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := roomcode.Normalize(args[0])
		action := strings.ToLower(args[1])

		u := fmt.Sprintf("%s/api/sharex/%s?action=%s",
			strings.TrimSuffix(serverURL, "/"), url.PathEscape(room), url.QueryEscape(action))
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching config: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		out := sharexOutput
		if out == "" {
			out = fmt.Sprintf("EMS_%s_%s.sxcu", strings.ToUpper(action), room)
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Println("Saved", out)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createNickname, "nickname", "", "medic nickname stored in room metadata")
	createCmd.Flags().StringVar(&createStaticID, "static-id", "", "medic static id stored in room metadata")
	joinCmd.Flags().BoolVar(&joinAudit, "audit", false, "follow read-only; local edits are never pushed")
	tokenCmd.Flags().BoolVar(&tokenAudit, "audit", false, "emit a read-only token")
	sharexCmd.Flags().StringVarP(&sharexOutput, "output", "o", "", "output file (default EMS_<ACTION>_<ROOM>.sxcu)")
}
