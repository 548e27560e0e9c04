package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dispatch statistics",
	Long:  `Display per-account dispatch totals: how many posts reached each destination and how many failed.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Limit to the last N days (0 means all time)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	since := ""
	if statsDays > 0 {
		since = time.Now().UTC().AddDate(0, 0, -statsDays).Format("2006-01-02")
	}

	rows, err := a.Store.StatsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}

	fmt.Println("=== CrossBot Statistics ===")
	fmt.Println()
	fmt.Printf("Database: %s\n", a.Config.DatabasePath)
	if since != "" {
		fmt.Printf("Since: %s\n", since)
	}
	fmt.Println()

	if len(rows) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	var totalOK, totalFailed int64
	fmt.Printf("%-4s %-10s %-20s %8s %8s\n", "ID", "PLATFORM", "NAME", "OK", "FAILED")
	for _, row := range rows {
		fmt.Printf("%-4d %-10s %-20s %8d %8d\n",
			row.AccountID, row.Platform, row.AccountName, row.PostsOK, row.PostsFailed)
		totalOK += row.PostsOK
		totalFailed += row.PostsFailed
	}
	fmt.Println()
	fmt.Printf("Total: %d ok, %d failed\n", totalOK, totalFailed)

	entries, err := a.Store.ListRecentPosts(ctx, 5)
	if err != nil {
		return fmt.Errorf("load recent posts: %w", err)
	}
	if len(entries) > 0 {
		fmt.Println()
		fmt.Println("Recent source posts:")
		for _, e := range entries {
			fmt.Printf("  %s/%s %s (%s, %d media)\n",
				e.Source, e.SourcePostID, e.Status, e.CreatedAt.Format("2006-01-02 15:04"), len(e.MediaURLs))
		}
	}
	return nil
}
