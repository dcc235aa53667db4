package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Miya253/ledgerkit/internal/codec"
	"github.com/Miya253/ledgerkit/internal/ledger"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [account...]",
		Short: "Print the committed ledger",
		Long: `Print the committed ledger, or only the named accounts.

Reads the last committed state; an in-flight mutation is never visible.

Examples:
  ledgerkit show
  ledgerkit show u1 u2
  ledgerkit show --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	return cmd
}

func runShow(opts *ShowOptions, accounts []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	// show is read-only: decode the blob directly instead of standing up
	// a full store (no gate, no backups needed to look).
	l, err := codec.New(cfg.LedgerPath).Load()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read ledger", err)
	}

	if len(accounts) > 0 {
		filtered := ledger.Ledger{}
		var missing []string
		for _, id := range accounts {
			rec, ok := l[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			filtered[id] = rec
		}
		if len(missing) > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("no such account: %s", strings.Join(missing, ", ")))
		}
		l = filtered
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(l)
	}
	return out.Success(formatLedger(l))
}

// formatLedger renders the ledger as stable, readable text.
func formatLedger(l ledger.Ledger) string {
	if len(l) == 0 {
		return "(empty ledger)"
	}
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		data, err := ledger.MarshalCanonical(l[id])
		if err != nil {
			fmt.Fprintf(&b, "%s\t<unrenderable: %v>\n", id, err)
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\n", id, data)
	}
	return strings.TrimRight(b.String(), "\n")
}
