package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"malti-dashboard/internal/apierror"
	"malti-dashboard/internal/instrumentation"
	"malti-dashboard/internal/model"
	"malti-dashboard/internal/status"
)

const authTestPath = "/api/v1/auth/test"

// Session owns the API key and wraps every authenticated call.
type Session interface {
	// Login validates key against the API, caches it and adopts the
	// thresholds the server returns.
	Login(ctx context.Context, key string) (model.Identity, error)
	// Logout forgets the key and resets thresholds to their defaults.
	Logout() error
	// Current returns the logged-in identity.
	Current() (model.Identity, bool)
	// Thresholds returns the active threshold snapshot.
	Thresholds() status.Thresholds
	// Restore logs in with a previously cached key, if any.
	Restore(ctx context.Context) error
	// Do sends req with the API key attached. A 401 or 403 response ends
	// the session.
	Do(req *http.Request) (*http.Response, error)
}

// Config wires a Session.
type Config struct {
	BaseURL    string
	Client     *http.Client
	Store      KeyStore
	Thresholds status.Thresholds
	Logger     *zap.Logger
	Metrics    *instrumentation.Metrics
}

type session struct {
	baseURL  string
	client   *http.Client
	store    KeyStore
	defaults status.Thresholds
	logger   *zap.Logger
	metrics  *instrumentation.Metrics

	mu         sync.RWMutex
	apiKey     string
	identity   *model.Identity
	thresholds status.Thresholds
}

// NewSession builds a Session. Nil Client, Store and Logger fall back to
// http.DefaultClient, an in-memory store and a no-op logger.
func NewSession(cfg Config) Session {
	s := &session{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     cfg.Client,
		store:      cfg.Store,
		defaults:   cfg.Thresholds,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		thresholds: cfg.Thresholds,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.store == nil {
		s.store = &MemoryKeyStore{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

type authTestResponse struct {
	User       model.User       `json:"user"`
	Thresholds status.Overrides `json:"thresholds"`
}

func (s *session) Login(ctx context.Context, key string) (model.Identity, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.Identity{}, apierror.ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+authTestPath, nil)
	if err != nil {
		return model.Identity{}, fmt.Errorf("build auth request: %w", err)
	}
	setHeaders(req, key)

	resp, err := s.send(req)
	if err != nil {
		return model.Identity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := apierror.FromResponse(resp, "Authentication failed (%d)")
		if apierror.IsUnauthorized(apiErr) {
			s.reset()
		}
		s.logger.Warn("login rejected", zap.Int("status", resp.StatusCode), zap.String("detail", apiErr.Detail))
		return model.Identity{}, apiErr
	}

	var body authTestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Identity{}, &apierror.Error{Status: resp.StatusCode, Detail: "invalid authentication response"}
	}

	identity := model.Identity{
		User:       body.User,
		Thresholds: s.defaults.With(body.Thresholds),
	}

	s.mu.Lock()
	s.apiKey = key
	s.identity = &identity
	s.thresholds = identity.Thresholds
	s.mu.Unlock()

	if err := s.store.Save(key); err != nil {
		s.logger.Warn("failed to cache API key", zap.Error(err))
	}
	s.logger.Info("logged in", zap.String("user", identity.User.Name), zap.String("type", identity.User.Type))
	return identity, nil
}

func (s *session) Logout() error {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear cached API key: %w", err)
	}
	return nil
}

func (s *session) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

func (s *session) Thresholds() status.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

func (s *session) Restore(ctx context.Context) error {
	key, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load cached API key: %w", err)
	}
	if key == "" {
		return nil
	}
	_, err = s.Login(ctx, key)
	return err
}

func (s *session) Do(req *http.Request) (*http.Response, error) {
	s.mu.RLock()
	key := s.apiKey
	s.mu.RUnlock()
	if key == "" {
		return nil, apierror.ErrNoAPIKey
	}

	req = req.Clone(req.Context())
	setHeaders(req, key)

	resp, err := s.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		s.expire(key)
		s.logger.Warn("API key rejected, session ended", zap.Int("status", resp.StatusCode), zap.String("path", req.URL.Path))
	}
	return resp, nil
}

func (s *session) send(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.ObserveUpstream(req.URL.Path, 0, time.Since(started))
		return nil, &apierror.NetworkError{Err: err}
	}
	s.metrics.ObserveUpstream(req.URL.Path, resp.StatusCode, time.Since(started))
	return resp, nil
}

// expire ends the session if key is still the active one.
func (s *session) expire(key string) {
	s.mu.Lock()
	if s.apiKey != key {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear cached API key", zap.Error(err))
	}
}

func (s *session) reset() {
	if err := s.Logout(); err != nil {
		s.logger.Warn("failed to clear cached API key", zap.Error(err))
	}
}

func (s *session) clearLocked() {
	s.apiKey = ""
	s.identity = nil
	s.thresholds = s.defaults
}

func setHeaders(req *http.Request, key string) {
	req.Header.Set("X-API-Key", key)
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
}
