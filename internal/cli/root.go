// Package cli implements studioctl, the command line client for the studio
// verification registry.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variables bound to global flags,
// e.g. STUDIOCTL_SERVER.
const EnvPrefix = "STUDIOCTL"

const (
	serverFlag  = "server"
	callerFlag  = "caller"
	timeoutFlag = "timeout"
	limitFlag   = "limit"

	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

// Exit codes returned by ExitCode.
const (
	ExitOK      = 0
	ExitRefused = 1
	ExitFailure = 2
)

// NewRootCmd builds the studioctl command tree. httpClient may be nil.
func NewRootCmd(httpClient *http.Client) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "studioctl",
		Short:         "Manage the studio verification registry",
		Long:          `studioctl verifies and revokes studios, queries verification status and transfers the registry admin role.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(serverFlag, defaultServer, "registry server base URL")
	flags.String(callerFlag, "", "principal acting on mutating commands")
	flags.Duration(timeoutFlag, defaultTimeout, "request timeout")
	bindFlags(v, flags, serverFlag, callerFlag, timeoutFlag)

	clientFor := func() *Client {
		return NewClient(v.GetString(serverFlag), v.GetString(callerFlag), httpClient)
	}
	timeout := func() time.Duration {
		if d := v.GetDuration(timeoutFlag); d > 0 {
			return d
		}
		return defaultTimeout
	}

	cmd.AddCommand(
		newVerifyCmd(clientFor, timeout),
		newRevokeCmd(clientFor, timeout),
		newIsVerifiedCmd(clientFor, timeout),
		newTransferAdminCmd(clientFor, timeout),
		newAdminCmd(clientFor, timeout),
		newStudiosCmd(clientFor, timeout),
		newAuditCmd(clientFor, timeout),
	)
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
}

// ExitCode maps an Execute error to the process exit status. Registry
// refusals exit with ExitRefused.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var regErr *RegistryError
	if errors.As(err, &regErr) {
		return ExitRefused
	}
	return ExitFailure
}

type clientFactory func() *Client

type timeoutFunc func() time.Duration

func withTimeout(cmd *cobra.Command, timeout timeoutFunc) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout())
}

func newVerifyCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <studio>",
		Short: "Mark a studio as verified (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			if err := client().Verify(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %s\n", args[0])
			return nil
		},
	}
}

func newRevokeCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <studio>",
		Short: "Revoke a studio's verification (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			if err := client().Revoke(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		},
	}
}

func newIsVerifiedCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "is-verified <studio>",
		Short: "Report whether a studio is verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			verified, err := client().IsVerified(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), verified)
			return nil
		},
	}
}

func newTransferAdminCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-admin <new-admin>",
		Short: "Hand the registry admin role to another principal (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			if err := client().TransferAdmin(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin transferred to %s\n", args[0])
			return nil
		},
	}
}

func newAdminCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Print the current registry admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			admin, err := client().Admin(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), admin)
			return nil
		},
	}
}

func newStudiosCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "studios",
		Short: "List verified studios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			studios, err := client().Studios(ctx)
			if err != nil {
				return err
			}
			for _, s := range studios {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func newAuditCmd(client clientFactory, timeout timeoutFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit events (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd, timeout)
			defer cancel()
			events, err := client().Audit(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tACTION\tACTOR\tSUBJECT\tDECISION")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Action, e.ActorID, e.Subject, e.Decision)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, limitFlag, 20, "maximum number of events")
	return cmd
}
