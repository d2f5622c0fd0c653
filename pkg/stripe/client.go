// Package stripe initializes the Stripe SDK once and holds the env-specific
// secrets the rest of the app reads from it.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/sampleforge/sampleforge-backend/pkg/config"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

// Client carries the initialized Stripe API client plus the webhook signing
// secret for the configured environment.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient validates the configured key against the declared environment
// and sets the package-level Stripe key. Call it once at startup.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	if env != testEnv && env != liveEnv {
		return nil, fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("stripe api key is required")
	}
	if err := checkKeyMatchesEnv(env, apiKey); err != nil {
		return nil, err
	}

	signingSecret := strings.TrimSpace(cfg.SigningSecret)
	if signingSecret == "" {
		return nil, errors.New("stripe webhook signing secret is required")
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		environment:   env,
		signingSecret: signingSecret,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// checkKeyMatchesEnv rejects a live key in test mode and vice versa before
// any request goes out.
func checkKeyMatchesEnv(env, key string) error {
	want := "sk_test"
	alt := "rk_test"
	if env == liveEnv {
		want = "sk_live"
		alt = "rk_live"
	}
	if strings.HasPrefix(key, want) || strings.HasPrefix(key, alt) {
		return nil
	}
	return fmt.Errorf("stripe environment %q requires a %s/%s secret key", env, want, alt)
}
