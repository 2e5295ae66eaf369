package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trendix",
		Short: "Rank trending short-form videos and detect view-count surges",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(surgeCmd())
	root.AddCommand(featuredCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with surge scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func surgeCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
		days       int
		platform   string
	)

	cmd := &cobra.Command{
		Use:   "surge",
		Short: "Show the current surge ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurge(jsonOutput, limit, days, platform)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 30, "max videos to show")
	cmd.Flags().IntVar(&days, "days", 3, "candidate window in days")
	cmd.Flags().StringVar(&platform, "platform", "", "platform filter (default: from config)")
	return cmd
}

func featuredCmd() *cobra.Command {
	var (
		jsonOutput bool
		query      string
		platform   string
	)

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Show the featured feed (popular, rising, hot categories)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatured(jsonOutput, query, platform)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&query, "query", "", "rank a recommended bucket against this query")
	cmd.Flags().StringVar(&platform, "platform", "", "platform filter (default: from config)")
	return cmd
}
