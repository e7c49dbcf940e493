package linkedin

import (
	"fmt"
	"net/url"
	"strings"

	"liscraper/pkg/browser"
)

const (
	// BaseURL is the base URL for LinkedIn
	BaseURL = "https://www.linkedin.com"

	// LoginURL is the username/password sign-in page
	LoginURL = BaseURL + "/login"

	// companyMarker appears in organization page paths
	companyMarker = "/company/"
)

// LoginForm is the sign-in form filled by the browser session.
var LoginForm = browser.LoginForm{
	URL:      LoginURL,
	Username: "#username",
	Password: "#password",
	Submit:   "button[type='submit']",
	Ready:    "#global-nav",
}

// IsCompany reports whether ref points at an organization page.
func IsCompany(ref string) bool {
	return strings.Contains(ref, companyMarker)
}

// ProfileSlug returns the last path segment of ref.
func ProfileSlug(ref string) string {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = strings.TrimRight(u.Path, "/")
	}
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// FeedURL returns the address of the activity feed for ref.
// Company pages list posts under /posts; personal profiles under
// /in/<slug>/recent-activity/all/.
func FeedURL(ref string) (string, error) {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", fmt.Errorf("empty profile reference")
	}

	if IsCompany(ref) {
		return ref + "/posts", nil
	}

	slug := ProfileSlug(ref)
	if slug == "" {
		return "", fmt.Errorf("cannot derive profile from %q", ref)
	}
	return fmt.Sprintf("%s/in/%s/recent-activity/all/", BaseURL, url.PathEscape(slug)), nil
}

// ItemQuery returns the feed item selector for the page at location.
func ItemQuery(location string) string {
	if IsCompany(location) {
		return CompanyItems
	}
	return ProfileItems
}
