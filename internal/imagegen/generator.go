package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNSFWRejected is the distinguished rejection for prompts the remote
	// service flags; callers show a dedicated notice instead of a generic
	// failure.
	ErrNSFWRejected = errors.New("nsfw content rejected")
	// ErrPollExhausted means the job never reached a terminal status within
	// the attempt budget.
	ErrPollExhausted = errors.New("generation polling exhausted")
)

const (
	MinSteps = 10
	MaxSteps = 100

	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 150
)

// Request describes one generation job.
type Request struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string // "W:H", e.g. "3:2"
	Steps          int
}

// Result is a finished job's output.
type Result struct {
	ImageURL string
}

type submitResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string   `json:"status"`
	Error  string   `json:"error"`
	Output []string `json:"output"`
	IsNSFW bool     `json:"is_nsfw"`
}

// Generator submits image jobs and polls them to completion. The remote
// service issues a single-use access token per call, so all generations are
// serialized behind one gate per Generator.
type Generator struct {
	client       *resty.Client
	tokens       *TokenManager
	gate         sync.Mutex
	pollInterval time.Duration
	maxPolls     int
}

// GeneratorOption tunes a Generator.
type GeneratorOption func(*Generator)

// WithPollInterval overrides the status poll cadence.
func WithPollInterval(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.pollInterval = d }
}

// WithMaxPolls caps status polls per job.
func WithMaxPolls(n int) GeneratorOption {
	return func(g *Generator) { g.maxPolls = n }
}

func NewGenerator(client *resty.Client, tokens *TokenManager, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:       client,
		tokens:       tokens,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one job start to finish: refresh the access token, submit,
// poll until terminal. The token refresh happens before the gate is taken so
// a slow in-flight job does not hold up the exchange.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if req.Steps < MinSteps || req.Steps > MaxSteps {
		return Result{}, fmt.Errorf("steps must be in [%d, %d], got %d", MinSteps, MaxSteps, req.Steps)
	}
	ratio, err := parseAspectRatio(req.AspectRatio)
	if err != nil {
		return Result{}, err
	}

	auth, err := g.tokens.Refresh(ctx)
	if err != nil {
		return Result{}, err
	}

	g.gate.Lock()
	defer g.gate.Unlock()

	var submitted submitResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetBody(map[string]interface{}{
			"prompt":              req.Prompt,
			"negative_prompt":     req.NegativePrompt,
			"aspect_ratio":        ratio,
			"num_inference_steps": req.Steps,
		}).
		SetResult(&submitted).
		Post("/predictions")
	if err != nil {
		return Result{}, fmt.Errorf("submit generation: %w", err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("submit generation: status %s", resp.Status())
	}
	if submitted.ID == "" {
		return Result{}, fmt.Errorf("submit generation: no job id")
	}

	return g.poll(ctx, auth, submitted.ID)
}

func (g *Generator) poll(ctx context.Context, auth, jobID string) (Result, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < g.maxPolls; attempt++ {
		var status statusResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetHeader("Authorization", auth).
			SetResult(&status).
			Get("/predictions/" + jobID)
		if err != nil {
			return Result{}, fmt.Errorf("poll generation: %w", err)
		}
		if resp.IsError() {
			return Result{}, fmt.Errorf("poll generation: status %s", resp.Status())
		}

		switch status.Status {
		case "succeeded":
			if status.IsNSFW {
				return Result{}, ErrNSFWRejected
			}
			if len(status.Output) == 0 {
				return Result{}, fmt.Errorf("generation succeeded with no output")
			}
			return Result{ImageURL: status.Output[0]}, nil
		case "failed":
			if strings.HasPrefix(status.Error, "NSFW") {
				return Result{}, ErrNSFWRejected
			}
			return Result{}, fmt.Errorf("generation failed: %s", status.Error)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
	return Result{}, ErrPollExhausted
}

func parseAspectRatio(raw string) (float64, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("aspect ratio must be W:H, got %q", raw)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("aspect ratio must be W:H, got %q", raw)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h == 0 {
		return 0, fmt.Errorf("aspect ratio must be W:H, got %q", raw)
	}
	return float64(w) / float64(h), nil
}
