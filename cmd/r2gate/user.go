package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/config"
	"github.com/sagarc03/r2gate/sessionbackend"
	"github.com/sagarc03/r2gate/userbackend"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the users file",
	Long: `Add, remove and list the users allowed to log in.

Users are read from auth.users_file (JSON, or YAML by extension) and from
inline auth.users entries in the config file. Only the users file is
modified by these commands.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add [flags] <username>",
	Short: "Create a user with a fresh token",
	Long: `Generate a random token for a user, print it once as username:token
and store its bcrypt hash in the users file.

The token is not recoverable afterwards. Adding an existing user replaces
its token.

Examples:
  r2gate user add alice
  r2gate user add --name "Alice A." alice
  r2gate user add --yes --users-file /etc/r2gate/users.yaml bob`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove a user from the users file",
	Long: `Remove a user from the users file and end its sessions.

Sessions are ended only for persistent session stores (redis, sqlite,
postgres). In-memory sessions belong to the running server and end when it
restarts.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserRemove,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var (
	userAddName    string
	userAddYes     bool
	userAddCost    int
	userListOutput string
)

func init() {
	userAddCmd.Flags().StringVar(&userAddName, "name", "", "display name (default: the username)")
	userAddCmd.Flags().BoolVarP(&userAddYes, "yes", "y", false, "write without asking for confirmation")
	userAddCmd.Flags().IntVar(&userAddCost, "cost", 0, "bcrypt cost (default: bcrypt.DefaultCost)")
	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "output format: table, yaml")

	userCmd.AddCommand(userAddCmd, userRemoveCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

// addUserOptions describes a user add request.
type addUserOptions struct {
	Username string
	Name     string
	Cost     int
	// Confirm is asked before the users file is written. Nil skips the question.
	Confirm func(label string) (bool, error)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	opts := addUserOptions{
		Username: args[0],
		Name:     userAddName,
		Cost:     userAddCost,
	}
	if !userAddYes {
		opts.Confirm = promptConfirm
	}

	return addUser(cmd.OutOrStdout(), cfg.Auth.UsersFile, opts)
}

// addUser generates a token, prints username:token to w and stores the hash
// in the users file at path once confirmed.
func addUser(w io.Writer, path string, opts addUserOptions) error {
	if opts.Username == "" {
		return fmt.Errorf("add user: empty username: %w", r2gate.ErrInvalidInput)
	}

	name := opts.Name
	if name == "" {
		name = opts.Username
	}

	token, err := userbackend.GenerateToken()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s:%s\n", opts.Username, token)
	_, _ = fmt.Fprintln(w, "Store this token now; it cannot be shown again.")

	if opts.Confirm != nil {
		ok, confirmErr := opts.Confirm(fmt.Sprintf("Write user %q to %s", opts.Username, path))
		if confirmErr != nil {
			return confirmErr
		}
		if !ok {
			_, _ = fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	hash, err := userbackend.HashToken(token, opts.Cost)
	if err != nil {
		return err
	}

	replaced, err := userbackend.PutUser(path, r2gate.User{
		Username:  opts.Username,
		Name:      name,
		TokenHash: hash,
	})
	if err != nil {
		return err
	}

	if replaced {
		_, _ = fmt.Fprintf(w, "Replaced token for %s in %s\n", opts.Username, path)
	} else {
		_, _ = fmt.Fprintf(w, "Added %s to %s\n", opts.Username, path)
	}
	return nil
}

// promptConfirm asks a yes/no question on the terminal. Answering no is not
// an error.
func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func runUserRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	username := args[0]
	if err := userbackend.DeleteUser(cfg.Auth.UsersFile, username); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", username, cfg.Auth.UsersFile)

	if cfg.Session.Type == "" || cfg.Session.Type == sessionbackend.TypeMemory {
		return nil
	}

	ended, err := endSessions(cmd.Context(), cfg.Session, username)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Ended %d session(s)\n", ended)
	return nil
}

// endSessions removes every session of username from the configured store.
func endSessions(ctx context.Context, cfg sessionbackend.Config, username string) (int, error) {
	sessions, closeSessions, err := sessionbackend.New(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("open session store: %w", err)
	}
	defer closeSessions()

	n, err := sessions.RemoveByUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("end sessions for %s: %w", username, err)
	}
	return n, nil
}

// userEntry is one row of user list output. Token hashes are never shown.
type userEntry struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
}

func runUserList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	entries, err := collectUsers(cfg.Auth)
	if err != nil {
		return err
	}

	return writeUsers(cmd.OutOrStdout(), entries, userListOutput)
}

// collectUsers merges inline and file users the way the server does, with
// file entries taking precedence, sorted by username.
func collectUsers(cfg config.AuthConfig) ([]userEntry, error) {
	byName := make(map[string]userEntry)
	for name, u := range cfg.Users {
		if name == "" || u.TokenHash == "" {
			continue
		}
		byName[name] = userEntry{Username: name, Name: u.Name, Source: "config"}
	}

	if cfg.UsersFile != "" {
		fileUsers, err := userbackend.LoadUsersFromFile(cfg.UsersFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for name, u := range fileUsers {
			byName[name] = userEntry{Username: name, Name: u.Name, Source: cfg.UsersFile}
		}
	}

	entries := make([]userEntry, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		entries = append(entries, byName[name])
	}
	return entries, nil
}

func writeUsers(w io.Writer, entries []userEntry, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode users: %w", err)
		}
		return enc.Close()
	case "table", "":
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(w, "No users configured.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "USERNAME\tNAME\tSOURCE")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Username, e.Name, e.Source)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q: %w", format, r2gate.ErrInvalidInput)
	}
}
