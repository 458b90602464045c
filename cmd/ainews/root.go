package main

import (
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "ainews",
	Short:        "AI news aggregator",
	Long:         "ainews collects AI and machine learning news from NewsAPI, scores it and publishes a daily markdown digest.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(rescoreCmd)
}
