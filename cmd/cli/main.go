package main

import (
	"fmt"
	"os"

	"github.com/crucial707/assettrack/cmd/cli/assets"
	"github.com/crucial707/assettrack/cmd/cli/root"
	"github.com/crucial707/assettrack/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	users.InitUsers(rootCmd)
	assets.InitAssets(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
