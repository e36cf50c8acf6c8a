package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alicomputer/retail-pos/internal/audit"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Session commands",
	Long:  `Inspect and drive the persisted terminal session: status, login, logout, capability checks and history`,
}

var (
	sessionPassword     string
	sessionHistoryLimit int
)

// withAuthority loads the config, restores the persisted session and runs fn against it.
func withAuthority(cmd *cobra.Command, fn func(ctx context.Context, deps *Dependencies) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	deps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Authority.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, deps)
}

func printSession(cmd *cobra.Command, deps *Dependencies) {
	snap := deps.Authority.Snapshot()
	s := snap.Session
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state: %s\n", s.State())
	if s.Identity != nil {
		fmt.Fprintf(out, "identity: %s <%s>\n", s.Identity.Name, s.Identity.Email)
		fmt.Fprintf(out, "role: %s\n", s.Identity.Role)
		fmt.Fprintf(out, "capabilities: %s\n", strings.Join(snap.Capabilities, ", "))
	}
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuthority(cmd, func(_ context.Context, deps *Dependencies) error {
			printSession(cmd, deps)
			return nil
		})
	},
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in as the identity with the given email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuthority(cmd, func(ctx context.Context, deps *Dependencies) error {
			ok, err := deps.Authority.Login(ctx, args[0], sessionPassword)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("login rejected for %s", args[0])
			}
			printSession(cmd, deps)
			return nil
		})
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuthority(cmd, func(ctx context.Context, deps *Dependencies) error {
			if err := deps.Authority.Logout(ctx); err != nil {
				return err
			}
			printSession(cmd, deps)
			return nil
		})
	},
}

var sessionCanCmd = &cobra.Command{
	Use:   "can [capability]",
	Short: "Check a capability against the persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuthority(cmd, func(_ context.Context, deps *Dependencies) error {
			allowed := deps.Authority.HasCapability(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], allowed)
			return nil
		})
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent session events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAuthority(cmd, func(ctx context.Context, deps *Dependencies) error {
			if deps.Recorder == nil {
				return fmt.Errorf("history needs database.source")
			}
			rows, err := deps.Recorder.Recent(ctx, sessionHistoryLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tEMAIL\tROLE\tDETAIL")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					row.OccurredAt.Format(time.RFC3339), row.EventType, row.Email, row.Role, row.Detail)
			}
			return w.Flush()
		})
	},
}

func init() {
	sessionLoginCmd.Flags().StringVarP(&sessionPassword, "password", "p", "", "secret to log in with")
	_ = sessionLoginCmd.MarkFlagRequired("password")
	sessionHistoryCmd.Flags().IntVarP(&sessionHistoryLimit, "limit", "n", audit.DefaultRecentLimit, "number of events to show")

	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionCanCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
}
