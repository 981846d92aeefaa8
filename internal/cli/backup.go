package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/galleria/internal/backup"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the local cache and configuration",
		Long: `Archive the local snapshot cache and the configuration file as tar.gz.

The session file is not included; sign in again after restoring.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("galleria-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
			}
			m, err := backup.Backup(cmd.Context(), cfg.GetString("cache.path"), cfg.Viper().ConfigFileUsed(), output)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			return newFormatter(cmd, rootOpts).Render(map[string]any{"archive": output, "manifest": m}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Backup created: %s\n", output)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: galleria-backup-{timestamp}.tar.gz)")
	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		input   string
		dataDir string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the cache and configuration from a backup",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				cfg, err := loadConfig(rootOpts)
				if err != nil {
					return err
				}
				dataDir = filepath.Dir(cfg.GetString("cache.path"))
			}
			m, err := backup.Restore(cmd.Context(), input, dataDir, force)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			return newFormatter(cmd, rootOpts).Render(map[string]any{"dir": dataDir, "manifest": m}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Restore complete: files restored to %s\n", dataDir)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "backup archive to restore (required)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "target directory for restored files (default: directory of cache.path)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
