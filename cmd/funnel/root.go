package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Funnel runs conditional multi-page forms",
	Long: `Funnel loads form definitions (pages, blocks, rules and variables) from YAML or JSON
and runs them in the terminal or over HTTP, keeping sessions resumable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory of funnel definitions, or a single definition file")
	flags.String("store", cli.StoreFile, "Session store: file, memory or redis")
	flags.String("sessions-dir", "", "Directory of the file store (default <dir>/.funnel/sessions)")
	flags.String("redis-addr", "", "Redis address for --store=redis (password read from REDIS_PASSWORD)")
	flags.String("session-ttl", "", "Expiry of sessions kept in redis, e.g. 24h")
	flags.Bool("debug", false, "Log page transitions and engine internals to stderr")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
}

// optionsFrom reads the flags shared by every command. Command-specific flags
// are read only when the command defines them.
func optionsFrom(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	var opts cli.Options
	opts.Dir, _ = flags.GetString("dir")
	opts.Store, _ = flags.GetString("store")
	opts.SessionsDir, _ = flags.GetString("sessions-dir")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.SessionTTL, _ = flags.GetString("session-ttl")
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogLevel, _ = flags.GetString("log-level")

	if flags.Lookup("funnel") != nil {
		opts.FunnelID, _ = flags.GetString("funnel")
	}
	if flags.Lookup("version") != nil {
		version, _ := flags.GetString("version")
		opts.Version = domain.Version(version)
	}
	if flags.Lookup("session") != nil {
		opts.SessionID, _ = flags.GetString("session")
	}
	if flags.Lookup("pii") != nil {
		opts.PII, _ = flags.GetStringSlice("pii")
	}
	if flags.Lookup("strict") != nil {
		opts.Strict, _ = flags.GetBool("strict")
	}
	if flags.Lookup("events-out") != nil {
		opts.EventsOut, _ = flags.GetString("events-out")
	}
	return opts
}
