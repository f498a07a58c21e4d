package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasknest/go-task-export/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Printf("taskexport %s\n", info.Version)
		fmt.Printf("  commit:     %s\n", info.GitCommit)
		fmt.Printf("  built:      %s\n", info.BuildTime)
		fmt.Printf("  go version: %s\n", info.Go)
	},
}
