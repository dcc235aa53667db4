package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Miya253/ledgerkit/internal/audit"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Actor string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ledger mutations from the audit log",
		Long: `Show recent ledger mutations from the audit log, newest first.

Requires audit_db to be configured; the audit log only contains
mutations made while the audit sink was attached.

Examples:
  ledgerkit history --limit 20
  ledgerkit history --actor u1
  ledgerkit history --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "actor", "", "only changes by this actor")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if cfg.AuditDB == "" {
		return NewExitError(ExitCommandError, "no audit_db configured; history needs the audit sink")
	}

	log, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit database", err)
	}
	defer log.Close()

	var entries []audit.Entry
	if opts.Actor != "" {
		entries, err = log.ByActor(cmd.Context(), opts.Actor, opts.Limit)
	} else {
		entries, err = log.Recent(cmd.Context(), opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to query audit log", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(entries)
	}
	return out.Success(formatEntries(entries))
}

func formatEntries(entries []audit.Entry) string {
	if len(entries) == 0 {
		return "(no audit entries)"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-12s  %-20s  %d account(s)\n",
			e.At.Format("2006-01-02 15:04:05"), e.Actor, e.Reason, len(e.Changes))
	}
	return strings.TrimRight(b.String(), "\n")
}
