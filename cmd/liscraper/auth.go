package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"liscraper/pkg/auth"
	"liscraper/pkg/ui"
)

var logoutAll bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn logins",
	Long: `Manage stored LinkedIn logins.

Logins are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables LISCRAPER_EMAIL and LISCRAPER_PASSWORD (read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Store a LinkedIn login",
	Long: `Store a LinkedIn login in the system keychain or an encrypted file.
The first stored login becomes the default one.`,
	Example: `  liscraper auth login
  liscraper auth login jane@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [email]",
	Short: "Remove stored logins",
	Example: `  liscraper auth logout jane@example.com
  liscraper auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored logins",
	RunE:  runList,
}

var switchCmd = &cobra.Command{
	Use:   "switch [email]",
	Short: "Choose the default login",
	Long: `Choose the login used when scrape gets no --email. Without an argument
the stored logins are listed to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(switchCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored login")
}

func newAuthManager() (*auth.Manager, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return manager, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	auth.WriteLoginGuide(os.Stdout)

	var address string
	if len(args) > 0 {
		address = strings.TrimSpace(args[0])
	} else {
		fmt.Print("LinkedIn email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		address = strings.TrimSpace(input)
	}
	if address == "" {
		return errors.New("email is required")
	}

	if existing, _ := manager.Retrieve(address); existing != nil {
		fmt.Printf("\nA login for '%s' already exists. Replace it? (y/N): ", address)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Password (hidden): ")
	secret, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if secret == "" {
		return errors.New("password is required")
	}

	account := &auth.Account{
		Email:        address,
		Password:     secret,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Login saved: " + address)
	if account.Default {
		ui.PrintInfo("Default login", address)
	}
	fmt.Println("\nCollect posts with:")
	fmt.Println("  liscraper scrape https://www.linkedin.com/in/<profile> -n 50")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return err
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove logins: %w", err)
		}
		ui.PrintSuccess("All logins removed")
		return nil
	}

	address, err := chooseAccount(manager, args, "Select login to remove:")
	if err != nil || address == "" {
		return err
	}
	if err := manager.Delete(address); err != nil {
		return fmt.Errorf("failed to remove login: %w", err)
	}
	ui.PrintSuccess("Login removed: " + address)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return err
	}
	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list logins: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored logins", "use 'liscraper auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Logins")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		marker := ""
		if sanitized.Default {
			marker = " (default)"
		}
		fmt.Printf("%d. %s%s\n", i+1, sanitized.Email, marker)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return err
	}
	address, err := chooseAccount(manager, args, "Select default login:")
	if err != nil || address == "" {
		return err
	}
	if err := manager.SetDefault(address); err != nil {
		return fmt.Errorf("failed to set default login: %w", err)
	}
	ui.PrintSuccess("Default login: " + address)
	return nil
}

// chooseAccount returns the email in args, or asks for one of the stored
// logins. An empty result means the user cancelled.
func chooseAccount(manager *auth.Manager, args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	accounts, err := manager.List()
	if err != nil {
		return "", fmt.Errorf("failed to list logins: %w", err)
	}
	if len(accounts) == 0 {
		return "", errors.New("no stored logins")
	}

	fmt.Println(prompt)
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Email)
	}
	fmt.Printf("  0. Cancel\n\nChoice: ")

	input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)
	switch {
	case choice == 0:
		return "", nil
	case choice < 0 || choice > len(accounts):
		return "", errors.New("invalid choice")
	}
	return accounts[choice-1].Email, nil
}

// readPassword reads a password without echo when stdin is a terminal.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(secret), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
