package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	"classy-quiz-bot/internal/domain"
	"classy-quiz-bot/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLanguageCacheFillsAndHits(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	inner := &countingStore{SolutionStore: memory.NewSolutionStore(sampleSolutions())}
	cache := NewLanguageCache(client, inner, time.Minute)

	langs, err := cache.Languages(context.Background())
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	sort.Strings(langs)
	if len(langs) != 2 || langs[0] != "Go" || langs[1] != "Python" {
		t.Fatalf("unexpected languages %v", langs)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner store called once, got %d", inner.calls)
	}

	// Second call should hit the Redis set, inner not incremented.
	_, _ = cache.Languages(context.Background())
	if inner.calls != 1 {
		t.Fatalf("expected cache hit, inner calls=%d", inner.calls)
	}

	if ttl := mr.TTL(langsKey); ttl < time.Minute {
		t.Fatalf("expected TTL of at least a minute, got %v", ttl)
	}
}

func TestLanguageCacheReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	inner := &countingStore{SolutionStore: memory.NewSolutionStore(sampleSolutions())}
	cache := NewLanguageCache(client, inner, time.Minute)

	if _, err := cache.Languages(context.Background()); err != nil {
		t.Fatalf("languages: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := cache.Languages(context.Background()); err != nil {
		t.Fatalf("languages after expiry: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected reload after expiry, inner calls=%d", inner.calls)
	}
}

func TestLanguageCachePassesThroughRandomSolution(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewLanguageCache(newClient(mr), memory.NewSolutionStore(sampleSolutions()), time.Minute)

	sol, err := cache.RandomSolution(context.Background())
	if err != nil {
		t.Fatalf("random solution: %v", err)
	}
	if sol.Code == "" {
		t.Fatalf("expected a snippet, got %+v", sol)
	}
}

type countingStore struct {
	*memory.SolutionStore
	calls int
}

func (s *countingStore) Languages(ctx context.Context) ([]string, error) {
	s.calls++
	return s.SolutionStore.Languages(ctx)
}

func sampleSolutions() []domain.Solution {
	return []domain.Solution{
		{TaskName: "FizzBuzz", Language: "Go", Code: "package main"},
		{TaskName: "FizzBuzz", Language: "Python", Code: "print()"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
