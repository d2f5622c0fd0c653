package stripe

import (
	"context"
	"testing"

	"github.com/sampleforge/sampleforge-backend/pkg/config"
)

func TestNewClient_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		cfg  config.StripeConfig
	}{
		{name: "missing api key", cfg: config.StripeConfig{SigningSecret: "whsec_1", Env: "test"}},
		{name: "missing signing secret", cfg: config.StripeConfig{APIKey: "sk_test_1", Env: "test"}},
		{name: "bad environment", cfg: config.StripeConfig{APIKey: "sk_test_1", SigningSecret: "whsec_1", Env: "staging"}},
		{name: "live env with test key", cfg: config.StripeConfig{APIKey: "sk_test_1", SigningSecret: "whsec_1", Env: "live"}},
		{name: "test env with live key", cfg: config.StripeConfig{APIKey: "sk_live_1", SigningSecret: "whsec_1", Env: "test"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(ctx, tc.cfg, nil); err == nil {
				t.Fatalf("expected %s to fail", tc.name)
			}
		})
	}
}

func TestNewClient_Success(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_test_123",
		SigningSecret: "whsec_123",
		Env:           "test",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("unexpected environment %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_123" {
		t.Fatalf("unexpected signing secret %q", client.SigningSecret())
	}
	if client.API() == nil {
		t.Fatal("expected underlying api client")
	}
}
