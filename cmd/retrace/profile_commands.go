package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retrace/internal/config"
	"retrace/internal/profile"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Device profile utilities",
	}

	profileCmd.AddCommand(newProfileImportCommand(ctx))
	profileCmd.AddCommand(newProfileListCommand(ctx))

	return profileCmd
}

func newProfileImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load a parser-produced device profile",
		Long: "Profile import reads the JSON transfer encoding emitted by the upstream\n" +
			"parsers (null means absent) and stores the relational model. Importing a\n" +
			"device again replaces its previous profile.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve profile path: %w", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read profile file: %w", err)
			}
			parsed, err := profile.ParseJSON(raw)
			if err != nil {
				return err
			}

			s, cleanup, err := ctx.openStores()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.profiles.Save(cmd.Context(), parsed); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"device_id":  parsed.DeviceID,
					"parameters": len(parsed.Parameters),
					"assemblies": len(parsed.Assemblies),
					"menus":      len(parsed.Menus),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored profile %s (%d parameters, %d assemblies, %d menus)\n",
				parsed.DeviceID, len(parsed.Parameters), len(parsed.Assemblies), len(parsed.Menus))
			return nil
		},
	}
}

func newProfileListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List devices with stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := ctx.openStores()
			if err != nil {
				return err
			}
			defer cleanup()

			ids, err := s.profiles.List(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"devices": ids})
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No profiles stored")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
