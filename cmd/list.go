package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doom/nest/internal/config"
	"github.com/doom/nest/internal/scenario"
)

var (
	listTags         []string
	listScenarioPath string
	listJSON         bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	Long: `List the scenarios the harness would run, with their tags and step
counts. Useful for picking --scenario and --tag selectors.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "Only list scenarios carrying one of these tags")
	listCmd.Flags().StringVar(&listScenarioPath, "scenario-path", "", "Scenario file or directory (default \"scenarios\")")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Emit the listing as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	path := resolveScenarioPath(listScenarioPath, cfg)
	scenarios, err := scenario.LoadPath(path)
	if err != nil {
		return err
	}
	scenarios = scenario.Filter(scenarios, nil, listTags)

	if listJSON {
		type entry struct {
			Name        string   `json:"name"`
			Description string   `json:"description,omitempty"`
			Tags        []string `json:"tags,omitempty"`
			Steps       int      `json:"steps"`
		}
		entries := make([]entry, 0, len(scenarios))
		for _, s := range scenarios {
			entries = append(entries, entry{
				Name:        s.Name,
				Description: s.Description,
				Tags:        s.Tags,
				Steps:       len(s.Steps),
			})
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling listing: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(scenarios) == 0 {
		fmt.Printf("No scenarios found in %s\n", path)
		return nil
	}

	nameWidth := 0
	for _, s := range scenarios {
		if len(s.Name) > nameWidth {
			nameWidth = len(s.Name)
		}
	}

	fmt.Printf("🧪 %d scenarios in %s\n\n", len(scenarios), path)
	for _, s := range scenarios {
		tags := ""
		if len(s.Tags) > 0 {
			tags = "[" + strings.Join(s.Tags, ", ") + "]"
		}
		fmt.Printf("  %-*s  %2d steps  %-24s %s\n", nameWidth, s.Name, len(s.Steps), tags, s.Description)
	}
	return nil
}
