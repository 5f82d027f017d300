package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/euphonyd/euphony/src/internal/config"
)

var preamble = `euphony ` + Version + `

euphony lets Apple Remote control an MPD server by impersonating an
iTunes music share.

euphony comes with ABSOLUTELY NO WARRANTY. This is free software, and you
are welcome to redistribute it under certain conditions. See the MIT
licence for details.`

var cfgPath string

var rootCmd = &cobra.Command{
	Use:     "euphony",
	Short:   "euphony DACP bridge for MPD",
	Long:    preamble,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.CfgFilepath,
		"path of the configuration file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
