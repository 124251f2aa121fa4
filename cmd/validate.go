package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doom/nest/internal/config"
	"github.com/doom/nest/internal/scenario"
)

var validateScenarioPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate scenario files without running them",
	Long: `Parse and validate every scenario file, reporting structural problems
such as unknown commands, missing packages for install steps or
duplicate scenario names. Nothing is executed.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateScenarioPath, "scenario-path", "", "Scenario file or directory (default \"scenarios\")")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	path := resolveScenarioPath(validateScenarioPath, cfg)
	scenarios, err := scenario.LoadPath(path)
	if err != nil {
		return err
	}

	if problems := scenario.ValidateSet(scenarios); len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "❌ %d validation problems in %s:\n", len(problems), path)
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  - %v\n", p)
		}
		return fmt.Errorf("validation failed")
	}

	fmt.Printf("✅ All %d scenarios in %s are valid\n", len(scenarios), path)
	return nil
}
