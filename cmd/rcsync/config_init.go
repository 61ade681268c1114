package main

import (
	"github.com/spf13/cobra"

	"github.com/redpwn/rcsync/pkg/config"
)

var configInit = &cobra.Command{
	Use:   "init",
	Short: "Init writes a config file with default values at '$HOME/.rcsync/config'.",
	RunE:  runConfigInitCmd,
}

func init() {
	configCmd.AddCommand(configInit)
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		return err
	}

	if err := config.NewConfig().Write(cfgPath); err != nil {
		return err
	}

	logger.Println("config written to", cfgPath)
	return nil
}
