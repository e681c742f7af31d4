package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cloudposse/flopen/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the CLI version",
	Long:    `This command prints the CLI version`,
	Example: "flopen version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("flopen %s on %s/%s\n", version.Version, runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
