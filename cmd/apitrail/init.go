package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apitrail/apitrail/internal/config"
)

//go:embed templates/apitrail.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new apitrail configuration file",
		Long: `Init creates a .apitrail configuration file in the current directory.

The generated file includes:
- Commented defaults for depth, concurrency, and timeouts
- Example per-host profiles with headers and domain restrictions

Examples:
  # Create .apitrail in the current directory
  apitrail init

  # Create the config file at a specific path
  apitrail init -o myconfig.yaml

  # Overwrite an existing file
  apitrail init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.FileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/apitrail.yaml")
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure per-host settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Authentication headers")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Crawl depth and request pacing per API")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Allowed domains")

	return nil
}
