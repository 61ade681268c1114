package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config manages the rcsync configuration file.",
}

func init() {
	rootCmd.AddCommand(configCmd)
}
