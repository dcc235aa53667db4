package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Miya253/ledgerkit/internal/audit"
	"github.com/Miya253/ledgerkit/internal/backup"
	"github.com/Miya253/ledgerkit/internal/ledger"
	"github.com/Miya253/ledgerkit/internal/store"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Actor  string
	Reason string
	Delete bool
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <account> <field> <value>",
		Short: "Set one field of an account record",
		Long: `Set one field of an account record through the gated pipeline.

The value is parsed as JSON when possible (numbers, booleans, null,
quoted strings, arrays, objects), otherwise taken as a plain string.
The mutation is backed up, diffed, and audited like any other write.

With --delete, removes the field (two args) or the whole account (one arg).

Examples:
  ledgerkit set u1 money 100 --actor admin --reason "manual adjustment"
  ledgerkit set u1 banned true --actor admin --reason moderation
  ledgerkit set u1 --delete --actor admin --reason cleanup`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "actor", "", "who is making this change (required)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "why this change is made (required)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the field (or the account)")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func runSet(opts *SetOptions, args []string, cmd *cobra.Command) error {
	if !opts.Delete && len(args) != 3 {
		return NewExitError(ExitCommandError, "set requires <account> <field> <value> unless --delete is given")
	}
	if opts.Delete && len(args) == 3 {
		return NewExitError(ExitCommandError, "--delete takes no value argument")
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	storeOpts := []store.Option{
		store.WithBackups(backup.NewManager(cfg.BackupDir, cfg.LedgerPath)),
	}
	if cfg.AuditDB != "" {
		log, err := audit.Open(cfg.AuditDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open audit database", err)
		}
		defer log.Close()
		storeOpts = append(storeOpts, store.WithSink(store.MultiSink{store.LogSink{}, log}))
	}

	s, err := store.Open(cfg.LedgerPath, storeOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open ledger", err)
	}

	account := args[0]
	rec, err := s.Update(cmd.Context(), func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		switch {
		case opts.Delete && len(args) == 1:
			delete(cur, account)
		case opts.Delete:
			if r := cur[account]; r != nil {
				delete(r, args[1])
			}
		default:
			r := cur[account]
			if r == nil {
				r = ledger.Record{}
				cur[account] = r
			}
			r[args[1]] = parseValue(args[2])
		}
		return cur, nil
	}, opts.Actor, opts.Reason)
	if err != nil {
		return WrapExitError(ExitFailure, "mutation failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(rec)
	}
	return out.Success(fmt.Sprintf("%s (%s)", rec.Summary(), rec.ID))
}

// parseValue interprets a CLI value argument: JSON when it parses,
// otherwise a plain string. "100" becomes the number 100; to store the
// string "100", quote it: '"100"'.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
