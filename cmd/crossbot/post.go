package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/app"
	"github.com/abdulachik/crossbot/internal/config"
	"github.com/abdulachik/crossbot/internal/dispatch"
	"github.com/abdulachik/crossbot/internal/policy"
)

var (
	postText      string
	postMedia     []string
	postPlatforms []string
	postDryRun    bool
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a post to the configured accounts",
	Long: `Publish one post to every active account, or to the selected platforms.

Media references may be local file paths or remote URLs; each platform
receives them the way its API expects.

Examples:
  crossbot post --text "hello world"
  crossbot post --text "new video" --media ./clip.mp4
  crossbot post --text "look" --media https://cdn.example.com/pic.jpg --platform telegram
  crossbot post --text "hello" --dry-run`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postText, "text", "", "Text body of the post")
	postCmd.Flags().StringArrayVar(&postMedia, "media", nil, "Media reference, repeatable (local path or URL)")
	postCmd.Flags().StringArrayVar(&postPlatforms, "platform", nil, "Limit to a platform, repeatable")
	postCmd.Flags().BoolVar(&postDryRun, "dry-run", false, "Show what would be posted without actually posting")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if postDryRun {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateForDispatch()
	}
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	accounts, err := a.Store.ListActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	accounts, err = filterByPlatform(accounts, postPlatforms)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No active accounts match; nothing to do.")
		return nil
	}

	if postDryRun {
		fmt.Println("=== DRY RUN - Not posting ===")
		for _, acct := range accounts {
			if err := policy.Check(acct.Platform, postText, len(postMedia)); err != nil {
				fmt.Printf("  %s (%s): would skip: %v\n", acct.Name, acct.Platform, err)
				continue
			}
			fmt.Printf("  %s (%s): would post\n", acct.Name, acct.Platform)
		}
		return nil
	}

	report, err := a.Dispatcher.Dispatch(ctx, dispatch.Post{
		Text:  postText,
		Media: postMedia,
	}, accounts)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	if err := a.Recorder.Record(ctx, report); err != nil {
		slog.Warn("failed to record statistics", "error", err)
	}

	fmt.Println()
	for _, out := range report.Outcomes {
		switch out.State {
		case dispatch.StateSucceeded:
			fmt.Printf("  %s (%s): posted %s\n", out.AccountName, out.Platform, out.PostURL)
		case dispatch.StateSkipped:
			fmt.Printf("  %s (%s): skipped: %s\n", out.AccountName, out.Platform, out.Reason)
		default:
			fmt.Printf("  %s (%s): failed: %s\n", out.AccountName, out.Platform, out.Reason)
		}
	}
	fmt.Printf("\n%d of %d destinations succeeded (%d skipped)\n",
		report.Succeeded, report.Attempted, report.Skipped)

	if report.Succeeded == 0 {
		return fmt.Errorf("no destination accepted the post")
	}
	return nil
}

// filterByPlatform keeps the accounts on the named platforms, or all of
// them when no platforms are named.
func filterByPlatform(accounts []*account.Account, platforms []string) ([]*account.Account, error) {
	if len(platforms) == 0 {
		return accounts, nil
	}

	wanted := make(map[account.Platform]bool, len(platforms))
	for _, p := range platforms {
		platform := account.Platform(p)
		if !platform.Valid() {
			return nil, fmt.Errorf("unknown platform %q (supported: %v)", p, account.Platforms())
		}
		wanted[platform] = true
	}

	var kept []*account.Account
	for _, acct := range accounts {
		if wanted[acct.Platform] {
			kept = append(kept, acct)
		}
	}
	return kept, nil
}
