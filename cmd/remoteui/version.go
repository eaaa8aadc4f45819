package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/remoteui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of remoteui",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remoteui version %s\n", strings.TrimSpace(remoteui.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
