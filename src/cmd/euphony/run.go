package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/euphonyd/euphony/src/internal/server"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run euphony service",
	Long:  "Run the euphony service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Run(Version, cfgPath); err != nil {
			fmt.Printf("euphony cannot be run: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
