// File: internal/browser/actions.go
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/tools"
)

const (
	pageContentCap = 8000
	htmlCap        = 60000

	defaultClickTimeout = 5 * time.Second
	defaultWaitTimeout  = 10 * time.Second
	defaultScrollAmount = 500
)

func (s *Session) navigate(ctx context.Context, args map[string]any) (string, error) {
	url := normalizeURL(tools.StringArg(args, "url", ""))

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	var title string
	if err := s.run(navCtx, chromedp.Navigate(url), chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	s.logger.Info("Navigated", zap.String("url", url), zap.String("title", title))

	result := fmt.Sprintf("Navigated to %s (title %q)", url, title)
	if s.autoLogin != nil {
		if msg, ok := s.autoLogin.TryAutoLogin(s.tabCtx, url); ok {
			result += " " + msg
		}
	}
	return result, nil
}

// click tries the selector as CSS first; when nothing matches within the
// timeout it retries as a visible-text lookup so the model can say
// click("Add to cart") without knowing the DOM.
func (s *Session) click(ctx context.Context, args map[string]any) (string, error) {
	selector := tools.StringArg(args, "selector", "")

	cssCtx, cancel := context.WithTimeout(ctx, defaultClickTimeout)
	err := s.run(cssCtx, chromedp.Click(selector, chromedp.ByQuery))
	cancel()
	if err == nil {
		return fmt.Sprintf("Clicked %q", selector), nil
	}

	xpath := visibleTextXPath(selector)
	textCtx, cancel := context.WithTimeout(ctx, defaultClickTimeout)
	defer cancel()
	if xerr := s.run(textCtx, chromedp.Click(xpath, chromedp.BySearch)); xerr != nil {
		return "", fmt.Errorf("could not click %q as CSS selector or visible text: %w", selector, err)
	}
	return fmt.Sprintf("Clicked %q", selector), nil
}

func (s *Session) typeText(ctx context.Context, args map[string]any) (string, error) {
	selector := tools.StringArg(args, "selector", "")
	text := tools.StringArg(args, "text", "")

	typeCtx, cancel := context.WithTimeout(ctx, defaultWaitTimeout)
	defer cancel()

	// Clear any existing value before typing so repeated fills replace
	// instead of appending.
	err := s.run(typeCtx,
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("could not type into %q: %w", selector, err)
	}
	return fmt.Sprintf("Typed %q into %q", text, selector), nil
}

func (s *Session) scroll(ctx context.Context, args map[string]any) (string, error) {
	direction := tools.StringArg(args, "direction", "down")
	amount := tools.IntArg(args, "amount", defaultScrollAmount)
	if amount <= 0 {
		amount = defaultScrollAmount
	}

	delta := amount
	switch strings.ToLower(direction) {
	case "up":
		delta = -amount
	case "down", "":
		// default
	default:
		return "", fmt.Errorf("scroll direction must be \"up\" or \"down\", got %q", direction)
	}

	js := fmt.Sprintf("window.scrollBy(0, %d)", delta)
	if err := s.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return "", fmt.Errorf("scroll failed: %w", err)
	}
	return fmt.Sprintf("Scrolled %s by %dpx", scrollWord(delta), amount), nil
}

func scrollWord(delta int) string {
	if delta < 0 {
		return "up"
	}
	return "down"
}

func (s *Session) waitFor(ctx context.Context, args map[string]any) (string, error) {
	selector := tools.StringArg(args, "selector", "")
	timeout := defaultWaitTimeout
	if ms := tools.IntArg(args, "timeout", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("element %q did not become visible within %s: %w", selector, timeout, err)
	}
	return fmt.Sprintf("Element %q appeared", selector), nil
}

// screenshot captures the current viewport as base64 PNG.
func (s *Session) screenshot(ctx context.Context) (string, error) {
	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (s *Session) getPageContent(ctx context.Context) (string, error) {
	var url, title, html string
	err := s.run(ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("could not read page content: %w", err)
	}

	text := visibleText(html)
	content := fmt.Sprintf("URL: %s\nTitle: %s\n\n%s", url, title, text)
	return truncateRunes(content, pageContentCap), nil
}

func (s *Session) getHTML(ctx context.Context, args map[string]any) (string, error) {
	selector := tools.StringArg(args, "selector", "")

	var html string
	var err error
	if selector == "" {
		err = s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	} else {
		err = s.run(ctx, chromedp.InnerHTML(selector, &html, chromedp.ByQuery))
	}
	if err != nil {
		return "", fmt.Errorf("could not read HTML: %w", err)
	}
	return truncateRunes(html, htmlCap), nil
}

// extract returns the page text prefixed with what the model asked for, so
// the extraction target travels with the content into the transcript.
func (s *Session) extract(ctx context.Context, args map[string]any) (string, error) {
	description := tools.StringArg(args, "description", "")

	content, err := s.getPageContent(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Page content for extraction (%q):\n%s", description, content), nil
}
