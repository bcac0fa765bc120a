// Package fetch is the headless-browser page fetcher. One Session is owned
// by a single brand run for its duration and must be released on every exit
// path.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

const (
	// DefaultMinDelay is the minimum elapsed time between requests issued
	// by one Session, enforced by the rate limiter.
	DefaultMinDelay = 3 * time.Second

	// DefaultNavigationTimeout bounds a single page fetch: navigation plus
	// a short settle window for late JS-rendered content.
	DefaultNavigationTimeout = 45 * time.Second

	settleWindow = 1500 * time.Millisecond
)

// Options configures a Session.
type Options struct {
	Headless          bool
	MinDelay          time.Duration
	NavigationTimeout time.Duration
	ChromePath        string
	Logger            *slog.Logger
}

// Session is a single brand run's browser fetcher: one browser instance and
// a rate limiter scoped to it.
type Session struct {
	browser *rod.Browser
	limiter *rateLimiter
	timeout time.Duration
	logger  *slog.Logger

	closeOnce sync.Once
}

// NewSession launches a headless (by default) stealth-patched browser for
// one brand run.
func NewSession(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minDelay := opts.MinDelay
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = DefaultNavigationTimeout
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-infobars").
		Set("window-size", "1920,1080").
		Set("lang", "en-US,en")
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Session{
		browser: browser,
		limiter: &rateLimiter{minDelay: minDelay},
		timeout: navTimeout,
		logger:  logger,
	}, nil
}

// Fetch retrieves the fully-rendered HTML of url, waiting out the rate
// limiter first and giving the page a short settle window after navigation
// completes for late JS-rendered content.
func (s *Session) Fetch(ctx context.Context, pageURL string) (string, error) {
	s.limiter.wait(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", fmt.Errorf("creating stealth page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for page load %s: %w", pageURL, err)
	}
	_ = page.Timeout(settleWindow).WaitStable(250 * time.Millisecond)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading page HTML %s: %w", pageURL, err)
	}
	return html, nil
}

// Close releases the underlying browser. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.browser != nil {
			err = s.browser.Close()
		}
	})
	return err
}

// rateLimiter enforces a minimum delay between successive requests made
// through one Session, measuring elapsed time since the last request and
// sleeping out the remainder.
type rateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time
}

func (r *rateLimiter) wait(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last.IsZero() {
		r.last = time.Now()
		return
	}
	elapsed := time.Since(r.last)
	if elapsed >= r.minDelay {
		r.last = time.Now()
		return
	}

	remaining := r.minDelay - elapsed
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	r.last = time.Now()
}
