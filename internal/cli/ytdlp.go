package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fbvideodl/internal/ytdl"
)

func (a *app) newYtdlpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ytdlp",
		Short: "Manage the bundled yt-dlp binary",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Download yt-dlp into the utils directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := ytdl.NewManager(a.cfg.YtdlUtilsDir, a.logger)

			if manager.IsInstalled() {
				printf(cmd.OutOrStdout(), "yt-dlp %s already installed at %s\n", manager.CurrentVersion(), manager.BinaryPath())
				return nil
			}

			version, err := manager.Install(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to install yt-dlp: %w", err)
			}

			printf(cmd.OutOrStdout(), "Installed yt-dlp %s at %s\n", version, manager.BinaryPath())
			return nil
		},
	})

	var checkOnly bool
	update := &cobra.Command{
		Use:   "update",
		Short: "Update yt-dlp to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := ytdl.NewManager(a.cfg.YtdlUtilsDir, a.logger)
			out := cmd.OutOrStdout()

			if checkOnly {
				latest, hasUpdate, err := manager.CheckForUpdate(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to check for updates: %w", err)
				}
				if !hasUpdate {
					printf(out, "Already up to date (version %s)\n", latest)
					return nil
				}
				current := manager.CurrentVersion()
				if current == "" {
					current = "not installed"
				}
				printf(out, "Update available: %s -> %s\n", current, latest)
				printf(out, "Run 'fbvideodl ytdlp update' to install the update\n")
				return nil
			}

			version, updated, err := manager.Update(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to update yt-dlp: %w", err)
			}
			if !updated {
				printf(out, "Already up to date (version %s)\n", version)
				return nil
			}

			printf(out, "Updated yt-dlp to %s\n", version)
			return nil
		},
	}
	update.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates without installing")
	cmd.AddCommand(update)

	return cmd
}
