package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of nest-test",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nest-test version %s\n", rootCmd.Version)
		},
	}
}
