package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/brpc/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample brpc configuration file with default values for
the server, channel, logging, telemetry, metrics, and HTTP carrier sections.

By default, the configuration file is created at
$XDG_CONFIG_HOME/brpc/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  brpcctl init

  # Initialize with custom path
  brpcctl init --config /etc/brpc/config.yaml

  # Force overwrite an existing config file
  brpcctl init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: brpcd start")
	fmt.Printf("  3. Or specify a custom config: brpcd start --config %s\n", configPath)

	return nil
}
