package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteLoginGuide explains where logins come from and how to keep the
// account safe.
func WriteLoginGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LINKEDIN LOGIN")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every batch signs in through the regular LinkedIn login form.")
	fmt.Fprintln(w, "Logins are looked up in this order:")
	fmt.Fprintln(w, "  1. --email and --password flags")
	fmt.Fprintf(w, "  2. %s and %s environment variables\n", EnvEmail, EnvPassword)
	fmt.Fprintln(w, "  3. The default account saved with 'liscraper auth login'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Saved logins go to the system keychain when one is available,")
	fmt.Fprintln(w, "otherwise to an encrypted file in the config directory.")
	fmt.Fprintf(w, "Set %s to choose the encryption passphrase yourself.\n", EnvPassphrase)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NOTES:")
	fmt.Fprintln(w, "  - Accounts with two-step verification will stop at the challenge page")
	fmt.Fprintln(w, "  - Run with --headless=false the first time to clear any security check")
	fmt.Fprintln(w, "  - Prefer a secondary account for long extractions")
	fmt.Fprintln(w, rule)
}
