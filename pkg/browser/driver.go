package browser

import (
	"context"
	"fmt"
)

// Driver is a handle on a rendered page.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	// Evaluate runs script in the page and stores its result in res.
	// res may be nil when the script's value is not needed.
	Evaluate(ctx context.Context, script string, res interface{}) error
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is a node on the page.
type Element interface {
	Text(ctx context.Context) (string, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// Session is a Driver that can authenticate and must be released.
type Session interface {
	Driver
	Login(ctx context.Context, email, password string) error
	Close() error
}

// Launcher opens fresh browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LoginForm describes the page used to establish an authenticated session.
type LoginForm struct {
	URL      string
	Username string
	Password string
	Submit   string
	// Ready becomes visible once the login succeeded.
	Ready string
}

// Scripts understood by every Driver implementation.
const (
	ScriptPageHeight           = "document.body.scrollHeight"
	ScriptScrollToBottom       = "window.scrollTo(0, document.body.scrollHeight);"
	ScriptSmoothScrollToBottom = "window.scrollTo({top: document.body.scrollHeight, behavior: 'smooth'});"
)

// ScrollTo returns a script that scrolls the window to y pixels.
func ScrollTo(y float64) string {
	return fmt.Sprintf("window.scrollTo(0, %d);", int64(y))
}
