package main

import (
	"fmt"

	buildinfo "github.com/aurwatch/aurwatch/internal/common/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(buildinfo.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
