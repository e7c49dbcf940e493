package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"liscraper/pkg/config"
	"liscraper/pkg/logger"
	"liscraper/pkg/pacing"
)

const (
	jsInnerText      = `function() { return this.innerText || this.textContent || ""; }`
	jsClick          = `function() { this.click(); }`
	jsScrollIntoView = `function() { this.scrollIntoView({behavior: 'smooth', block: 'center'}); }`
)

// ChromeLauncher starts a local Chrome through chromedp for every session.
type ChromeLauncher struct {
	cfg    config.BrowserConfig
	form   LoginForm
	pacing pacing.Policy
	logger logger.Logger
}

// NewChromeLauncher creates a launcher for the given browser settings.
func NewChromeLauncher(cfg config.BrowserConfig, form LoginForm, p pacing.Policy, log logger.Logger) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg, form: form, pacing: p, logger: log}
}

// Launch starts a browser and opens a tab. The browser lives until Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(l.cfg.UserAgent),
	)
	if l.cfg.WindowWidth > 0 && l.cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(l.cfg.WindowWidth, l.cfg.WindowHeight))
	}
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		cfg:         l.cfg,
		form:        l.form,
		pacing:      l.pacing,
		logger:      l.logger,
	}

	// An empty Run starts the browser so launch failures surface here.
	if err := s.run(ctx, 0); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	l.logger.InfoWithFields("Browser session started", map[string]interface{}{
		"headless": l.cfg.Headless,
	})
	return s, nil
}

type chromeSession struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	cfg         config.BrowserConfig
	form        LoginForm
	pacing      pacing.Policy
	logger      logger.Logger
}

// run executes actions on the tab, bounded by ctx and an optional timeout.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tabCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, 0, chromedp.Location(&u))
	return u, err
}

func (s *chromeSession) Evaluate(ctx context.Context, script string, res interface{}) error {
	return s.run(ctx, 0, chromedp.Evaluate(script, res))
}

func (s *chromeSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return s.queryNodes(ctx, selector)
}

func (s *chromeSession) queryNodes(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]Element, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := s.run(ctx, 0, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}

	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, &chromeElement{session: s, node: n})
	}
	return elems, nil
}

// Login fills the login form one keystroke at a time and waits for the
// authenticated page to appear.
func (s *chromeSession) Login(ctx context.Context, email, password string) error {
	if err := s.Navigate(ctx, s.form.URL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := s.pacing.Wait(ctx, pacing.LoginSettle); err != nil {
		return err
	}

	if err := s.typeInto(ctx, s.form.Username, email); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := s.typeInto(ctx, s.form.Password, password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	if err := s.run(ctx, s.cfg.LoginTimeout, chromedp.Click(s.form.Submit, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	if err := s.run(ctx, s.cfg.LoginTimeout, chromedp.WaitVisible(s.form.Ready, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("login did not reach an authenticated page: %w", err)
	}

	return s.pacing.Wait(ctx, pacing.PostLogin)
}

func (s *chromeSession) typeInto(ctx context.Context, selector, text string) error {
	if err := s.run(ctx, s.cfg.LoginTimeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return err
	}
	for _, r := range text {
		if err := s.run(ctx, 0, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		if err := s.pacing.Wait(ctx, pacing.Keystroke); err != nil {
			return err
		}
	}
	return nil
}

// Close clears cookies and shuts the browser down.
func (s *chromeSession) Close() error {
	ctx, cancel := context.WithTimeout(s.tabCtx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, network.ClearBrowserCookies()); err != nil {
		s.logger.WithError(err).Debug("Failed to clear cookies before shutdown")
	}

	err := chromedp.Cancel(s.tabCtx)
	s.cancelTab()
	s.cancelAlloc()
	return err
}

type chromeElement struct {
	session *chromeSession
	node    *cdp.Node
}

// callOn runs fn with this bound to the element.
func (e *chromeElement) callOn(ctx context.Context, fn string, res interface{}) error {
	return e.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		ret, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(res != nil).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if res == nil || ret == nil || len(ret.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(ret.Value), res)
	}))
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var s string
	err := e.callOn(ctx, jsInnerText, &s)
	return s, err
}

func (e *chromeElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return e.session.queryNodes(ctx, selector, chromedp.FromNode(e.node))
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	return e.callOn(ctx, jsScrollIntoView, nil)
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.callOn(ctx, jsClick, nil)
}
