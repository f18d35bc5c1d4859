package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"notia-client/internal/bootstrap"
	"notia-client/internal/client"
	"notia-client/internal/config"
	"notia-client/internal/entity"
	"notia-client/internal/notesync"
	"notia-client/internal/socket"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notia",
		Short: "Notia real-time note client",
		Long:  "Headless client for the Notia note service: notebooks, notes, sharing and live sync over one socket connection.",
	}

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(notebookCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newContainer() *bootstrap.Container {
	return bootstrap.NewContainer(config.Load())
}

// openSession bootstraps an authenticated workspace or exits with a login
// hint when the session cookie is missing or expired.
func openSession(ctx context.Context, c *bootstrap.Container) *entity.User {
	user, err := c.Workspace.Bootstrap(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			color.Red("Not logged in. Run `notia login` first.")
		} else {
			color.Red("Failed to start session: %v", err)
		}
		os.Exit(1)
	}
	return user
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with Google",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer c.Logger.Sync()

			if c.OAuthConfig.ClientID == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID is not configured")
			}

			url := c.OAuthConfig.AuthCodeURL("state-notia")
			color.Cyan("Open this URL in your browser and authorize:")
			fmt.Println(url)
			fmt.Print("Paste the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return err
			}

			token, err := c.OAuthConfig.Exchange(cmd.Context(), strings.TrimSpace(code))
			if err != nil {
				return fmt.Errorf("code exchange failed: %w", err)
			}
			credential, ok := token.Extra("id_token").(string)
			if !ok || credential == "" {
				return fmt.Errorf("no id_token in token response")
			}

			if peek, err := c.AuthService.PeekGoogleCredential(credential); err == nil {
				color.Yellow("Logging in as %s <%s>", peek.DisplayName, peek.Email)
			}

			user, err := c.AuthService.VerifyGoogleToken(cmd.Context(), credential)
			if err != nil {
				return fmt.Errorf("server rejected the credential: %w", err)
			}

			color.Green("Logged in as %s <%s>", user.DisplayName, user.Email)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer c.Logger.Sync()

			if err := c.AuthService.Logout(cmd.Context()); err != nil {
				return err
			}
			color.Green("Logged out.")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer c.Logger.Sync()

			resp, err := c.AuthService.Status(cmd.Context())
			if err != nil || !resp.Authenticated {
				color.Yellow("Not logged in.")
				return nil
			}
			if resp.User != nil {
				color.Green("Logged in as %s <%s>", resp.User.DisplayName, resp.User.Email)
			} else {
				color.Green("Logged in.")
			}
			return nil
		},
	}
}

func notebookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Manage notebooks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notebooks with their notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			notebooks := c.Workspace.Notebooks()
			if len(notebooks) == 0 {
				fmt.Println("No notebooks yet. Create one with `notia notebook create`.")
				return nil
			}
			for _, nb := range notebooks {
				shared := ""
				if nb.IsShared() {
					shared = color.YellowString(" (shared, %d members)", len(nb.Users))
				}
				fmt.Printf("%s  %s%s\n", color.CyanString(nb.Id), nb.Title, shared)
				for _, note := range nb.Notes {
					fmt.Printf("    %s  %s\n", note.Id, note.Title)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create [title]",
		Short: "Create a notebook",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			title := strings.Join(args, " ")
			nb, err := c.Workspace.CreateNotebook(cmd.Context(), title)
			if err != nil {
				return err
			}
			color.Green("Created notebook %s (%s)", nb.Title, nb.Id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <notebook-id>",
		Short: "Delete a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.DeleteNotebook(cmd.Context(), args[0]); err != nil {
				return err
			}
			color.Green("Deleted notebook %s", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "share <notebook-id> <email>",
		Short: "Share a notebook with another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			nb, err := c.Workspace.Share(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			color.Green("Shared %s; members: %d", nb.Title, len(nb.Users))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "members <notebook-id>",
		Short: "List a notebook's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			members, err := c.Workspace.Members(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range members {
				fmt.Printf("%s  %s <%s>\n", m.Id, m.DisplayName, m.Email)
			}
			return nil
		},
	})

	return cmd
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <notebook-id> [title]",
		Short: "Create a note in a notebook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			note, err := c.Workspace.CreateNote(cmd.Context(), title, nil)
			if err != nil {
				return err
			}
			color.Green("Created note %s (%s)", note.Title, note.Id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <notebook-id> <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			if err := c.Workspace.DeleteNote(cmd.Context(), args[1]); err != nil {
				return err
			}
			color.Green("Deleted note %s", args[1])
			if next := c.Workspace.ActiveNote(); next != nil {
				fmt.Printf("Active note is now %s (%s)\n", next.Title, next.Id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <notebook-id> <note-id>",
		Short: "Print a note's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			if err := c.Workspace.SelectNote(args[1]); err != nil {
				return err
			}
			title, blocks := c.Workspace.Buffer()
			color.Cyan("# %s", title)
			for _, block := range blocks {
				fmt.Println(block)
			}
			return nil
		},
	})

	return cmd
}

// editCmd runs a small line-oriented editing session. Every change feeds
// the same debounced save pipeline the browser editor used; remote changes
// to the open note land in the buffer while the session is running.
func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <notebook-id> <note-id>",
		Short: "Edit a note interactively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)
			openSession(cmd.Context(), c)

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			if err := c.Workspace.SelectNote(args[1]); err != nil {
				return err
			}

			c.Workspace.OnSaveStatus(func(s notesync.Status) {
				switch s {
				case notesync.StatusSaving:
					fmt.Println(color.YellowString("[saving...]"))
				case notesync.StatusSaved:
					fmt.Println(color.GreenString("[saved]"))
				case notesync.StatusError:
					fmt.Println(color.RedString("[save failed]"))
				}
			})

			printBuffer(c)
			fmt.Println("Commands: :title <text>, :set <n> <html>, :enter, :back, :print, :quit")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if done := runEditLine(c, line); done {
					break
				}
			}
			return scanner.Err()
		},
	}
}

func runEditLine(c *bootstrap.Container, line string) bool {
	switch {
	case line == ":quit" || line == ":q":
		return true
	case line == ":print":
		printBuffer(c)
	case line == ":enter":
		c.Workspace.PressEnter()
	case line == ":back":
		c.Workspace.PressBackspace()
	case strings.HasPrefix(line, ":title "):
		c.Workspace.EditTitle(strings.TrimPrefix(line, ":title "))
	case strings.HasPrefix(line, ":set "):
		rest := strings.TrimPrefix(line, ":set ")
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) != 2 {
			color.Red("usage: :set <block-index> <html>")
			return false
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			color.Red("bad block index %q", parts[0])
			return false
		}
		c.Workspace.EditBlock(index, parts[1])
	case line == "":
	default:
		// A bare line replaces block 0, the common single-block case.
		c.Workspace.EditBlock(0, line)
	}
	return false
}

func printBuffer(c *bootstrap.Container) {
	title, blocks := c.Workspace.Buffer()
	color.Cyan("# %s", title)
	for i, block := range blocks {
		fmt.Printf("%2d  %s\n", i, block)
	}
}

// watchCmd keeps a notebook open and streams its remote activity until
// interrupted.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <notebook-id>",
		Short: "Stream live updates for a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newContainer()
			defer closeSession(c)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			openSession(ctx, c)

			c.Conn.On(socket.EventNoteUpdated, func(data json.RawMessage) {
				var p socket.NoteUpdatedPayload
				if json.Unmarshal(data, &p) == nil {
					fmt.Printf("%s note %s: %q (%d blocks)\n",
						color.YellowString("updated"), p.NoteId, p.Title, len(p.Content))
				}
			})
			c.Conn.On(socket.EventUserJoined, func(data json.RawMessage) {
				var p socket.UserPresencePayload
				if json.Unmarshal(data, &p) == nil {
					fmt.Printf("%s %s\n", color.GreenString("joined"), p.Email)
				}
			})
			c.Conn.On(socket.EventUserLeft, func(data json.RawMessage) {
				var p socket.UserPresencePayload
				if json.Unmarshal(data, &p) == nil {
					fmt.Printf("%s %s\n", color.RedString("left"), p.Email)
				}
			})

			if err := c.Workspace.SelectNotebook(args[0]); err != nil {
				return err
			}
			c.Workspace.StartPolling(ctx)
			c.Workspace.StartAuthWatch(ctx, func() {
				color.Red("Session expired. Run `notia login` again.")
				cancel()
			})

			color.Cyan("Watching notebook %s. Ctrl-C to stop.", args[0])

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigs:
			case <-ctx.Done():
			}
			return nil
		},
	}
}

func closeSession(c *bootstrap.Container) {
	c.Workspace.Close()
	c.Logger.Sync()
}
