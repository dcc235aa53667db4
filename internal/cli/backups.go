package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Miya253/ledgerkit/internal/backup"
)

// BackupsOptions holds flags for the backups command group.
type BackupsOptions struct {
	*RootOptions
	Keep int
}

// NewBackupsCommand creates the backups command group.
func NewBackupsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage pre-write ledger backups",
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List backup generations, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupsList(opts, cmd)
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove old backup generations",
		Long: `Remove all but the newest --keep backup generations.

Retention is an operator decision; the store itself never deletes a
backup.

Example:
  ledgerkit backups prune --keep 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupsPrune(opts, cmd)
		},
	}
	prune.Flags().IntVar(&opts.Keep, "keep", -1, "generations to keep (required)")
	_ = prune.MarkFlagRequired("keep")

	cmd.AddCommand(list)
	cmd.AddCommand(prune)
	return cmd
}

func runBackupsList(opts *BackupsOptions, cmd *cobra.Command) error {
	m, err := backupManager(opts.RootOptions)
	if err != nil {
		return err
	}

	handles, err := m.List()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list backups", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(handles)
	}
	if len(handles) == 0 {
		return out.Success("(no backups)")
	}
	var b strings.Builder
	for _, h := range handles {
		fmt.Fprintf(&b, "%s  %s\n", h.CreatedAt.Format("2006-01-02 15:04:05"), h.Path)
	}
	return out.Success(strings.TrimRight(b.String(), "\n"))
}

func runBackupsPrune(opts *BackupsOptions, cmd *cobra.Command) error {
	if opts.Keep < 0 {
		return NewExitError(ExitCommandError, "--keep must be zero or positive")
	}
	m, err := backupManager(opts.RootOptions)
	if err != nil {
		return err
	}

	removed, err := m.Prune(opts.Keep)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to prune backups", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]int{"removed": removed})
	}
	return out.Success(fmt.Sprintf("removed %d backup(s)", removed))
}

func backupManager(opts *RootOptions) (*backup.Manager, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(cfg.BackupDir, cfg.LedgerPath), nil
}
