package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sampleforge/sampleforge-backend/pkg/config"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.SendgridConfig{
		APIKey:      "sg-key",
		DefaultFrom: "orders@sampleforge.io",
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.httpClient = &http.Client{Transport: rt}
	return client
}

func TestSendSuccess(t *testing.T) {
	var captured sendRequest
	client := testClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer sg-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusAccepted,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     http.Header{},
		}
	})

	err := client.Send(context.Background(), Message{
		To:       "buyer@example.com",
		Subject:  "Your samples are ready",
		TextBody: "download links inside",
		HTMLBody: "<p>download links inside</p>",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if captured.From.Email != "orders@sampleforge.io" {
		t.Fatalf("unexpected from %q", captured.From.Email)
	}
	if len(captured.Personalizations) != 1 || captured.Personalizations[0].To[0].Email != "buyer@example.com" {
		t.Fatalf("unexpected recipients %+v", captured.Personalizations)
	}
	if len(captured.Content) != 2 || captured.Content[0].Type != "text/plain" {
		t.Fatalf("expected text part first, got %+v", captured.Content)
	}
}

func TestSendSurfacesAPIErrors(t *testing.T) {
	client := testClient(t, func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"errors":[{"message":"bad key"}]}`)),
			Header:     http.Header{},
		}
	})

	err := client.Send(context.Background(), Message{
		To:       "buyer@example.com",
		Subject:  "subject",
		TextBody: "body",
	})
	if err == nil {
		t.Fatal("expected error from 401 response")
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestSendValidation(t *testing.T) {
	client := testClient(t, func(req *http.Request) *http.Response {
		t.Fatal("no request expected")
		return nil
	})

	cases := []Message{
		{Subject: "s", TextBody: "b"},
		{To: "buyer@example.com", TextBody: "b"},
		{To: "buyer@example.com", Subject: "s"},
	}
	for _, msg := range cases {
		if err := client.Send(context.Background(), msg); err == nil {
			t.Fatalf("expected validation error for %+v", msg)
		}
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.SendgridConfig{DefaultFrom: "a@b.c"}, nil); err == nil {
		t.Fatal("expected missing api key to fail")
	}
	if _, err := NewClient(config.SendgridConfig{APIKey: "key"}, nil); err == nil {
		t.Fatal("expected missing from address to fail")
	}
}
