// init.go implements the "fathom init" command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fathom-dev/fathom/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise .fathom/ in the current directory",
	Long: `Create the .fathom/ directory with a default config.yaml. Edit the
config to tune the quality threshold, governance thresholds, model,
and storage backend.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	if _, err := config.ReadConfig(root); err == nil {
		return fmt.Errorf(".fathom/config.yaml already exists")
	}

	cfg := config.DefaultConfig()
	if err := config.WriteConfig(root, cfg); err != nil {
		return err
	}

	fmt.Println("Initialised .fathom/config.yaml")
	fmt.Println("Set GEMINI_API_KEY and run 'fathom new <project-name>' to start an interview.")
	return nil
}
