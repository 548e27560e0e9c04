package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/app"
	"github.com/abdulachik/crossbot/internal/config"
)

var (
	addPlatform   string
	addName       string
	addCredential string
	addSettings   []string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage destination accounts",
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a destination account",
	Long: `Add a destination account. The credential is encrypted before it is
stored; for Instagram pass it as username:password, for every other
platform pass the access token.

Examples:
  crossbot accounts add --platform telegram --name main-channel \
      --credential 123456:ABC-DEF --setting chat_id=@mychannel
  crossbot accounts add --platform vk --name community \
      --credential vk1.a.token --setting owner_id=-123456
  crossbot accounts add --platform instagram --name brand \
      --credential myuser:mypassword`,
	RunE: runAccountsAdd,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts",
	RunE:  runAccountsList,
}

var accountsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccountsSetActive(args[0], true)
	},
}

var accountsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an account without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccountsSetActive(args[0], false)
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an account and its statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

func init() {
	accountsAddCmd.Flags().StringVar(&addPlatform, "platform", "", "Platform name (vk, telegram, instagram, pinterest, youtube)")
	accountsAddCmd.Flags().StringVar(&addName, "name", "", "Account name, unique per platform")
	accountsAddCmd.Flags().StringVar(&addCredential, "credential", "", "Access token, or username:password for instagram")
	accountsAddCmd.Flags().StringArrayVar(&addSettings, "setting", nil, "Platform setting as key=value, repeatable")
	accountsAddCmd.MarkFlagRequired("platform")
	accountsAddCmd.MarkFlagRequired("name")
	accountsAddCmd.MarkFlagRequired("credential")

	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsEnableCmd)
	accountsCmd.AddCommand(accountsDisableCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDispatch(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	platform := account.Platform(addPlatform)
	cred, err := account.ParseCredential(platform, addCredential)
	if err != nil {
		return err
	}

	settings, err := parseSettings(addSettings)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	acct := &account.Account{
		Platform: platform,
		Name:     addName,
		Settings: settings,
		Active:   true,
	}
	if err := acct.StoreCredential(a.Encryptor, cred); err != nil {
		return err
	}
	if err := a.Store.CreateAccount(ctx, acct); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Printf("Added account %d: %s (%s)\n", acct.ID, acct.Name, acct.Platform)
	return nil
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	accounts, err := a.Store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	fmt.Printf("%-4s %-10s %-20s %-8s %s\n", "ID", "PLATFORM", "NAME", "ACTIVE", "SETTINGS")
	for _, acct := range accounts {
		fmt.Printf("%-4d %-10s %-20s %-8t %s\n",
			acct.ID, acct.Platform, acct.Name, acct.Active, formatSettings(acct.Settings))
	}
	return nil
}

func runAccountsSetActive(rawID string, active bool) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q", rawID)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.SetAccountActive(ctx, id, active); err != nil {
		return fmt.Errorf("update account %d: %w", id, err)
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("Account %d %s\n", id, state)
	return nil
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q", args[0])
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("remove account %d: %w", id, err)
	}
	fmt.Printf("Account %d removed\n", id)
	return nil
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

func parseSettings(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	settings := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q, expected key=value", pair)
		}
		settings[key] = value
	}
	return settings, nil
}

func formatSettings(settings map[string]string) string {
	if len(settings) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+settings[key])
	}
	return strings.Join(parts, " ")
}
