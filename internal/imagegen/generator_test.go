package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

// fakeBackend serves both the token exchange and the prediction endpoints so
// one httptest server can stand in for the whole remote service.
type fakeBackend struct {
	polls    atomic.Int64
	statuses []statusResponse
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{TokenType: "Bearer", AccessToken: "access"})
	})
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			t.Errorf("missing auth header on submit")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(submitResponse{ID: "job-1"})
	})
	mux.HandleFunc("/predictions/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := int(b.polls.Add(1)) - 1
		if n >= len(b.statuses) {
			n = len(b.statuses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(b.statuses[n])
	})
	return mux
}

func newTestGenerator(t *testing.T, backend *fakeBackend, opts ...GeneratorOption) *Generator {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	tokens := NewTokenManager(resty.New(), NewMemoryTokenStore("refresh"), srv.URL+"/token", "key")
	client := resty.New().SetBaseURL(srv.URL)
	opts = append([]GeneratorOption{WithPollInterval(time.Millisecond)}, opts...)
	return NewGenerator(client, tokens, opts...)
}

func validRequest() Request {
	return Request{Prompt: "a red fox", AspectRatio: "3:2", Steps: 30}
}

func TestGenerateSucceedsAfterPolling(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{
		{Status: "processing"},
		{Status: "processing"},
		{Status: "succeeded", Output: []string{"https://img.example/fox.png"}},
	}}
	gen := newTestGenerator(t, backend)

	res, err := gen.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.ImageURL != "https://img.example/fox.png" {
		t.Fatalf("unexpected image url %q", res.ImageURL)
	}
	if backend.polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", backend.polls.Load())
	}
}

func TestGenerateNSFWFlaggedOutput(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{
		{Status: "succeeded", IsNSFW: true, Output: []string{"https://img.example/x.png"}},
	}}
	gen := newTestGenerator(t, backend)

	_, err := gen.Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrNSFWRejected) {
		t.Fatalf("expected ErrNSFWRejected, got %v", err)
	}
}

func TestGenerateNSFWFailureMessage(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{
		{Status: "failed", Error: "NSFW content detected"},
	}}
	gen := newTestGenerator(t, backend)

	_, err := gen.Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrNSFWRejected) {
		t.Fatalf("expected ErrNSFWRejected, got %v", err)
	}
}

func TestGenerateOtherFailure(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{
		{Status: "failed", Error: "out of capacity"},
	}}
	gen := newTestGenerator(t, backend)

	_, err := gen.Generate(context.Background(), validRequest())
	if err == nil || errors.Is(err, ErrNSFWRejected) {
		t.Fatalf("expected plain failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "out of capacity") {
		t.Fatalf("expected remote error in message, got %v", err)
	}
}

func TestGeneratePollExhausted(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{
		{Status: "processing"},
	}}
	gen := newTestGenerator(t, backend, WithMaxPolls(3))

	_, err := gen.Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("expected ErrPollExhausted, got %v", err)
	}
	if backend.polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", backend.polls.Load())
	}
}

func TestGenerateValidatesRequest(t *testing.T) {
	backend := &fakeBackend{statuses: []statusResponse{{Status: "succeeded", Output: []string{"u"}}}}
	gen := newTestGenerator(t, backend)

	cases := []Request{
		{Prompt: "p", AspectRatio: "3:2", Steps: 5},
		{Prompt: "p", AspectRatio: "3:2", Steps: 101},
		{Prompt: "p", AspectRatio: "wide", Steps: 30},
		{Prompt: "p", AspectRatio: "3:0", Steps: 30},
	}
	for _, req := range cases {
		if _, err := gen.Generate(context.Background(), req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}
	if backend.polls.Load() != 0 {
		t.Fatalf("invalid requests must not reach the backend")
	}
}

func TestParseAspectRatio(t *testing.T) {
	ratio, err := parseAspectRatio("3:2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ratio != 1.5 {
		t.Fatalf("expected 1.5, got %v", ratio)
	}
}
