package main

import (
	"github.com/RyanBlaney/sonido-static/configs"
	"github.com/spf13/cobra"
)

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after defaults, config file, environment
(SONIDO_STATIC_*) and flags are merged. The output is a valid config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		return configs.WriteYAML(cmd.OutOrStdout(), config)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
