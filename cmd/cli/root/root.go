package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "assettrack",
	Short: "AssetTrack CLI",
	Long:  "Command line interface for the AssetTrack equipment custody API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the root command for packages that register subcommands.
func GetRoot() *cobra.Command {
	return RootCmd
}
