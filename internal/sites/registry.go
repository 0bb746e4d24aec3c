// File: internal/sites/registry.go

// Package sites holds deterministic per-site login automations. Handlers are
// consulted after every navigation so the model never has to juggle
// credentials itself.
package sites

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Handler automates login for one specific website. The context passed to
// IsLoginPage and Login is the live chromedp tab context.
type Handler interface {
	// Name is the human-readable site name (e.g. "SauceDemo").
	Name() string
	// Matches reports whether this handler applies to the URL. Fast, no I/O.
	Matches(url string) bool
	// IsLoginPage reports whether the current page shows the site's login form.
	IsLoginPage(ctx context.Context) (bool, error)
	// Login fills credentials and submits. An error means the handler
	// declined or failed; the registry moves on either way.
	Login(ctx context.Context) error
}

// Registry walks handlers in registration order after a navigation.
type Registry struct {
	handlers []Handler
	logger   *zap.Logger
}

// NewRegistry builds a registry over an explicit handler list.
func NewRegistry(logger *zap.Logger, handlers ...Handler) *Registry {
	return &Registry{
		handlers: handlers,
		logger:   logger.Named("sites"),
	}
}

// DefaultRegistry returns the registry with every shipped handler.
func DefaultRegistry(logger *zap.Logger) *Registry {
	return NewRegistry(logger, NewSauceDemo())
}

// TryAutoLogin runs the first handler that matches the URL and sees a login
// form. It returns a status message and true when a login was performed;
// handler failures are logged and skipped so navigation never breaks on a
// misbehaving automation.
func (r *Registry) TryAutoLogin(ctx context.Context, url string) (string, bool) {
	for _, h := range r.handlers {
		if !h.Matches(url) {
			continue
		}

		onLogin, err := h.IsLoginPage(ctx)
		if err != nil {
			r.logger.Warn("Login-page check failed",
				zap.String("site", h.Name()), zap.Error(err))
			continue
		}
		if !onLogin {
			continue
		}

		if err := h.Login(ctx); err != nil {
			r.logger.Warn("Auto-login declined or failed",
				zap.String("site", h.Name()), zap.Error(err))
			continue
		}

		r.logger.Info("Auto-login completed", zap.String("site", h.Name()))
		return fmt.Sprintf("(auto-login completed for %s)", h.Name()), true
	}
	return "", false
}
