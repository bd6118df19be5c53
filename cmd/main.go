package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portal-compare",
	Short: "Compare CRM metadata between two HubSpot portals",
	Long: `portal-compare fetches object schemas, properties, custom objects and
association labels from two HubSpot portals and reports how they differ.

Run "serve" for the HTTP API or "compare" for a one-shot report.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before configuration")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newCompareCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
