package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"retrace/internal/config"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <device-id> <descriptor|legacy> <file>",
		Short: "Archive an original device description file",
		Long: "Import stores the file bytes verbatim as the ground truth for later\n" +
			"round-trip comparisons. Re-importing the same (device, file type) pair\n" +
			"replaces the previous archive entry.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := strings.TrimSpace(args[0])
			if deviceID == "" {
				return fmt.Errorf("device id is required")
			}
			dialect, err := parseDialectArg(args[1])
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[2])
			if err != nil {
				return fmt.Errorf("resolve file path: %w", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read original file: %w", err)
			}

			s, cleanup, err := ctx.openStores()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.archive.Put(cmd.Context(), deviceID, dialect, raw); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"device_id": deviceID,
					"file_type": string(dialect),
					"bytes":     len(raw),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s/%s (%d bytes)\n", deviceID, dialect, len(raw))
			return nil
		},
	}
}
