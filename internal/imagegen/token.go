package imagegen

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
)

// TokenStore persists the long-lived refresh credential across restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// EnvFileTokenStore keeps the refresh token in a dotenv file, under a fixed
// key, so rotation survives process restarts.
type EnvFileTokenStore struct {
	path string
	key  string
}

func NewEnvFileTokenStore(path, key string) *EnvFileTokenStore {
	return &EnvFileTokenStore{path: path, key: key}
}

func (s *EnvFileTokenStore) Load() (string, error) {
	env, err := godotenv.Read(s.path)
	if err != nil {
		return "", fmt.Errorf("read env file: %w", err)
	}
	token, ok := env[s.key]
	if !ok || token == "" {
		return "", fmt.Errorf("env file %s has no %s", s.path, s.key)
	}
	return token, nil
}

func (s *EnvFileTokenStore) Save(token string) error {
	env, err := godotenv.Read(s.path)
	if err != nil {
		env = map[string]string{}
	}
	env[s.key] = token
	if err := godotenv.Write(env, s.path); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// MemoryTokenStore holds the token in memory (tests).
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager exchanges the stored refresh token for a bearer token before
// each generation call. The service rotates the refresh token on every
// exchange; the rotated value is persisted through the store.
type TokenManager struct {
	client   *resty.Client
	store    TokenStore
	tokenURL string
	apiKey   string
}

func NewTokenManager(client *resty.Client, store TokenStore, tokenURL, apiKey string) *TokenManager {
	return &TokenManager{
		client:   client,
		store:    store,
		tokenURL: tokenURL,
		apiKey:   apiKey,
	}
}

// Refresh returns a ready-to-use authorization header value.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	refreshToken, err := m.store.Load()
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}

	var out tokenResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParam("key", m.apiKey).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&out).
		Post(m.tokenURL)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token exchange: status %s", resp.Status())
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}

	if out.RefreshToken != "" && out.RefreshToken != refreshToken {
		if err := m.store.Save(out.RefreshToken); err != nil {
			return "", fmt.Errorf("persist rotated token: %w", err)
		}
	}
	return out.TokenType + " " + out.AccessToken, nil
}
