// Package fetch - browser.go provides the headless browser used to render
// client-side profile pages.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ErrBrowserClosed is returned when a session is requested after Close.
var ErrBrowserClosed = errors.New("browser closed")

// pageSourceTimeout bounds the best-effort markup capture on the failure path.
const pageSourceTimeout = 2 * time.Second

// Session is a single browser tab.
type Session interface {
	Navigate(url string) error
	// WaitFor blocks until an element matching the CSS selector exists.
	WaitFor(selector string, timeout time.Duration) error
	// FindText returns the rendered text of every element matching the CSS selector.
	FindText(selector string) ([]string, error)
	PageSource() (string, error)
}

// Browser hands out scoped sessions. The session is closed when fn returns,
// whatever the outcome.
type Browser interface {
	WithSession(ctx context.Context, fn func(Session) error) error
}

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	UserAgent      string
	WindowWidth    int
	WindowHeight   int
	SessionTimeout time.Duration
	// ExecPath overrides Chrome discovery.
	ExecPath string
}

// DefaultBrowserOptions returns the fixed desktop configuration.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		UserAgent:      DefaultUserAgent,
		WindowWidth:    1920,
		WindowHeight:   1080,
		SessionTimeout: 45 * time.Second,
	}
}

// Chrome is a Browser backed by one shared headless Chrome process. The process is
// started lazily by the first session and stopped by Close; each session is a tab.
type Chrome struct {
	opts BrowserOptions

	once          sync.Once
	startErr      error
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewChrome creates a Chrome browser. No process is started until first use.
func NewChrome(opts BrowserOptions) *Chrome {
	defaults := DefaultBrowserOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = defaults.WindowWidth, defaults.WindowHeight
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaults.SessionTimeout
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) start(ctx context.Context) error {
	c.once.Do(func() {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(c.opts.WindowWidth, c.opts.WindowHeight),
			chromedp.UserAgent(c.opts.UserAgent),
		)
		if c.opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
		}

		// The browser outlives any single request, so it hangs off Background.
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		if err := chromedp.Run(browserCtx); err != nil {
			browserCancel()
			allocCancel()
			c.startErr = fmt.Errorf("start headless browser: %w", err)
			return
		}

		zerolog.Ctx(ctx).Info().Msg("headless browser started")
		c.browserCtx, c.browserCancel, c.allocCancel = browserCtx, browserCancel, allocCancel
	})
	return c.startErr
}

// WithSession opens a tab, runs fn, and closes the tab. The tab is bounded by the
// session timeout and by ctx.
func (c *Chrome) WithSession(ctx context.Context, fn func(Session) error) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrBrowserClosed
	}

	if err := c.start(ctx); err != nil {
		return err
	}

	tabCtx, closeTab := chromedp.NewContext(c.browserCtx)
	defer closeTab()

	// Opening the tab is covered by the same bound as the work in it. The bound
	// derives from tabCtx, so expiring it closes this tab only.
	sessionCtx, cancel := boundContext(tabCtx, ctx, c.opts.SessionTimeout)
	defer cancel()

	if err := chromedp.Run(sessionCtx); err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	return fn(&chromeSession{ctx: sessionCtx})
}

// boundContext derives a context from parent that ends after timeout or when
// caller is done, whichever comes first.
func boundContext(parent, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close stops the browser process. Sessions requested afterwards fail.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.browserCancel != nil {
		c.browserCancel()
		c.allocCancel()
	}
	return nil
}

type chromeSession struct {
	ctx context.Context
}

func (s *chromeSession) Navigate(url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitFor(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) FindText(selector string) ([]string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => el.innerText || "")`, quoted)

	var texts []string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return texts, nil
}

func (s *chromeSession) PageSource() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, pageSourceTimeout)
	defer cancel()

	var markup string
	err := chromedp.Run(ctx, chromedp.Evaluate(`document.documentElement ? document.documentElement.outerHTML : ""`, &markup))
	return markup, err
}
