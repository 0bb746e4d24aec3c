// File: internal/sites/saucedemo.go
package sites

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// SauceDemo logs into saucedemo.com with credentials from the environment.
type SauceDemo struct{}

var _ Handler = (*SauceDemo)(nil)

// NewSauceDemo returns the saucedemo.com handler.
func NewSauceDemo() *SauceDemo { return &SauceDemo{} }

func (s *SauceDemo) Name() string { return "SauceDemo" }

func (s *SauceDemo) Matches(url string) bool {
	return strings.Contains(url, "saucedemo.com")
}

func (s *SauceDemo) IsLoginPage(ctx context.Context) (bool, error) {
	var present bool
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.querySelector('#login-button') !== null`, &present),
	)
	if err != nil {
		return false, fmt.Errorf("login-button probe failed: %w", err)
	}
	return present, nil
}

func (s *SauceDemo) Login(ctx context.Context) error {
	username := os.Getenv("SAUCEDEMO_USERNAME")
	password := os.Getenv("SAUCEDEMO_PASSWORD")
	if username == "" || password == "" {
		return fmt.Errorf("SAUCEDEMO_USERNAME / SAUCEDEMO_PASSWORD not configured")
	}

	if err := chromedp.Run(ctx,
		chromedp.WaitVisible("#user-name", chromedp.ByQuery),
		chromedp.SendKeys("#user-name", username, chromedp.ByQuery),
		chromedp.SendKeys("#password", password, chromedp.ByQuery),
		chromedp.Click("#login-button", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("credential submission failed: %w", err)
	}

	// The inventory page confirms a successful login.
	var res bool
	if err := chromedp.Run(ctx,
		chromedp.Poll(`window.location.href.includes("inventory.html")`, &res,
			chromedp.WithPollingTimeout(10*time.Second)),
	); err != nil {
		return fmt.Errorf("inventory page never appeared: %w", err)
	}
	return nil
}
