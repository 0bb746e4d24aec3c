// File: internal/browser/session.go

// Package browser executes the model's browser actions against a real
// Chrome tab via chromedp. One session owns one allocator and one tab; the
// loop runs actions strictly sequentially against it.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/sites"
)

// Session is the action executor behind the dispatcher's forwarded tools.
type Session struct {
	id        string
	cfg       config.BrowserConfig
	autoLogin *sites.Registry
	logger    *zap.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSession creates an unstarted session. The auto-login registry may be
// nil to disable login automation.
func NewSession(cfg config.BrowserConfig, autoLogin *sites.Registry, logger *zap.Logger) *Session {
	id := uuid.New().String()[:8]
	return &Session{
		id:        id,
		cfg:       cfg,
		autoLogin: autoLogin,
		logger:    logger.Named("browser").With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Start launches Chrome and opens the tab. Idempotent: a second call on a
// live session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	if s.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Opening the tab eagerly surfaces launch failures here instead of on
	// the first action.
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(s.cfg.ViewportWidth), int64(s.cfg.ViewportHeight)),
		emulation.SetUserAgentOverride(s.cfg.UserAgent),
	); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	s.allocCancel = allocCancel
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.started = true
	s.logger.Info("Browser session started",
		zap.Bool("headless", s.cfg.Headless),
		zap.Int("viewport_width", s.cfg.ViewportWidth),
		zap.Int("viewport_height", s.cfg.ViewportHeight))
	return nil
}

// Close releases the tab and the browser process. Safe on every exit path,
// including sessions that never started.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		return nil
	}

	s.tabCancel()
	s.allocCancel()
	s.started = false
	s.logger.Info("Browser session closed")
	return nil
}

// Execute dispatches one forwarded tool invocation to its browser action.
// The validator screens names before this point; the unknown-name branch is
// defense against a miswired dispatch table.
func (s *Session) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.Lock()
	ready := s.started && !s.closed
	s.mu.Unlock()
	if !ready {
		return "", fmt.Errorf("browser session not started")
	}

	s.logger.Debug("Executing browser action", zap.String("action", name))

	switch name {
	case "navigate":
		return s.navigate(ctx, args)
	case "click":
		return s.click(ctx, args)
	case "type":
		return s.typeText(ctx, args)
	case "scroll":
		return s.scroll(ctx, args)
	case "wait_for":
		return s.waitFor(ctx, args)
	case "screenshot":
		return s.screenshot(ctx)
	case "get_page_content":
		return s.getPageContent(ctx)
	case "get_html":
		return s.getHTML(ctx, args)
	case "extract":
		return s.extract(ctx, args)
	default:
		return "", fmt.Errorf("unknown browser action %q", name)
	}
}

// run executes chromedp actions on the session tab under the caller's
// deadline. chromedp contexts form a tree, so the operation context cannot
// be passed directly; a watcher cancels the tab work when the caller gives
// up.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
