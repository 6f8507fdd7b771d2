package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studenttools/gateway/internal/gateway/trafficfilter"
)

var (
	flagRulesFile string
	flagUserAgent string
	flagPath      string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Test traffic filter rules",
}

var filterCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a user agent or path against the filter rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUserAgent == "" && flagPath == "" {
			return fmt.Errorf("provide --user-agent and/or --path")
		}

		rules, err := trafficfilter.LoadRules(flagRulesFile)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		filter := trafficfilter.New(rules)

		if flagUserAgent != "" {
			if sig, ok := filter.MatchUserAgent(flagUserAgent); ok {
				fmt.Printf("user agent: BLOCKED (matched %q)\n", sig)
			} else {
				fmt.Println("user agent: allowed")
			}
		}
		if flagPath != "" {
			if pattern, ok := filter.MatchPath(flagPath); ok {
				fmt.Printf("path: BLOCKED (matched %q)\n", pattern)
			} else {
				fmt.Println("path: allowed")
			}
		}
		return nil
	},
}

func init() {
	filterCheckCmd.Flags().StringVar(&flagRulesFile, "rules", "", "Extra rules file (YAML)")
	filterCheckCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "User agent to check")
	filterCheckCmd.Flags().StringVar(&flagPath, "path", "", "Request path to check")

	filterCmd.AddCommand(filterCheckCmd)
	rootCmd.AddCommand(filterCmd)
}
