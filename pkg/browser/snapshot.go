package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SnapshotOptions controls how a saved page imitates lazy loading.
type SnapshotOptions struct {
	// ItemSelector matches the feed items that are revealed progressively.
	ItemSelector string
	// InitialItems are visible before any scrolling.
	InitialItems int
	// ItemsPerScroll are revealed by each scroll to the bottom.
	ItemsPerScroll int
	// ItemHeight is the page growth in pixels per revealed item.
	ItemHeight int
	// Location is reported until Navigate is called.
	Location string
	// Login validates credentials. Nil accepts anything.
	Login func(email, password string) error
}

// DefaultSnapshotOptions reveals three items at a time.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{
		ItemSelector:   "div.occludable-update, div.feed-shared-update-v2",
		InitialItems:   3,
		ItemsPerScroll: 3,
		ItemHeight:     800,
	}
}

// Snapshot is a Driver over a saved HTML page. Feed items past the reveal
// window are invisible to queries until the page is scrolled to the bottom.
type Snapshot struct {
	mu       sync.Mutex
	doc      *goquery.Document
	opts     SnapshotOptions
	items    []*html.Node
	revealed int
	location string
	scripts  []string
	clicks   int
	loggedIn bool
	closed   bool
}

// NewSnapshot parses page.
func NewSnapshot(page []byte, opts SnapshotOptions) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if opts.ItemSelector == "" {
		opts.ItemSelector = DefaultSnapshotOptions().ItemSelector
	}

	s := &Snapshot{doc: doc, opts: opts, location: opts.Location}
	doc.Find(opts.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		s.items = append(s.items, sel.Get(0))
	})
	s.revealed = min(opts.InitialItems, len(s.items))
	return s, nil
}

func (s *Snapshot) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("snapshot session closed")
	}
	s.location = url
	return nil
}

func (s *Snapshot) Location(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location, ctx.Err()
}

// Evaluate understands the height and scroll scripts. Scrolling to the
// bottom reveals the next ItemsPerScroll items; other scripts are recorded
// and ignored.
func (s *Snapshot) Evaluate(ctx context.Context, script string, res interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, script)

	switch script {
	case ScriptPageHeight:
		return assignNumber(res, s.heightLocked())
	case ScriptScrollToBottom, ScriptSmoothScrollToBottom:
		s.revealed = min(s.revealed+s.opts.ItemsPerScroll, len(s.items))
	}
	return nil
}

func (s *Snapshot) heightLocked() int {
	return 1000 + s.revealed*s.opts.ItemHeight
}

func assignNumber(res interface{}, n int) error {
	switch v := res.(type) {
	case nil:
	case *int:
		*v = n
	case *int64:
		*v = int64(n)
	case *float64:
		*v = float64(n)
	case *interface{}:
		*v = float64(n)
	default:
		return fmt.Errorf("unsupported result type %T", res)
	}
	return nil
}

func (s *Snapshot) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrapLocked(s.doc.Find(selector)), nil
}

func (s *Snapshot) wrapLocked(sel *goquery.Selection) []Element {
	hidden := make(map[*html.Node]bool, len(s.items)-s.revealed)
	for _, n := range s.items[s.revealed:] {
		hidden[n] = true
	}

	var out []Element
	sel.Each(func(_ int, one *goquery.Selection) {
		for n := one.Get(0); n != nil; n = n.Parent {
			if hidden[n] {
				return
			}
		}
		out = append(out, &snapshotElement{snap: s, sel: one})
	})
	return out
}

// Login validates credentials through the configured check.
func (s *Snapshot) Login(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.opts.Login != nil {
		if err := s.opts.Login(email, password); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	return nil
}

func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Revealed returns how many feed items are currently visible.
func (s *Snapshot) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Scripts returns every script evaluated so far.
func (s *Snapshot) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Clicks returns how many elements were clicked.
func (s *Snapshot) Clicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks
}

// Closed reports whether Close was called.
func (s *Snapshot) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LoggedIn reports whether Login succeeded.
func (s *Snapshot) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

type snapshotElement struct {
	snap *Snapshot
	sel  *goquery.Selection
}

// Text approximates innerText: one trimmed line per text run, blanks dropped.
func (e *snapshotElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.snap.mu.Lock()
	raw := e.sel.Text()
	e.snap.mu.Unlock()

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e *snapshotElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.snap.mu.Lock()
	defer e.snap.mu.Unlock()
	return e.snap.wrapLocked(e.sel.Find(selector)), nil
}

func (e *snapshotElement) ScrollIntoView(ctx context.Context) error {
	return ctx.Err()
}

// Click marks "see more" controls as expanded so they are not clicked twice.
func (e *snapshotElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.snap.mu.Lock()
	defer e.snap.mu.Unlock()
	e.snap.clicks++
	if strings.Contains(strings.ToLower(e.sel.Text()), "see more") {
		e.sel.SetText("see less")
	}
	return nil
}

// SnapshotLauncher opens a fresh Snapshot of the same page for every session,
// the way each batch gets a fresh browser.
type SnapshotLauncher struct {
	page []byte
	opts SnapshotOptions

	mu       sync.Mutex
	sessions []*Snapshot
	// FailLaunch, when set, is returned by the next Launch calls.
	FailLaunch error
}

// NewSnapshotLauncher creates a launcher serving page.
func NewSnapshotLauncher(page []byte, opts SnapshotOptions) *SnapshotLauncher {
	return &SnapshotLauncher{page: page, opts: opts}
}

func (l *SnapshotLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailLaunch != nil {
		return nil, l.FailLaunch
	}
	s, err := NewSnapshot(l.page, l.opts)
	if err != nil {
		return nil, err
	}
	l.sessions = append(l.sessions, s)
	return s, nil
}

// Sessions returns every session launched so far.
func (l *SnapshotLauncher) Sessions() []*Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Snapshot(nil), l.sessions...)
}
