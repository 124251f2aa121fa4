package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nest-test",
	Short: "End-to-end test harness for the nest package manager",
	Long: `nest-test runs end-to-end scenarios against the nest, finest and
nest-server binaries. Every scenario gets an isolated fixture set: an
ephemeral repository server, a generated client configuration and a
scratch installation root, all torn down in reverse order once the
scenario finishes, whatever the outcome.`,
	SilenceUsage: true,
}

// SetVersion sets the version string reported by --version and the
// version subcommand. Populated from main at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nest-test version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
