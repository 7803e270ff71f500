package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/repo"
)

// Mock implementations

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSleeper advances the clock instead of blocking
type fakeSleeper struct {
	clock *fakeClock

	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	s.clock.Advance(d)
	return nil
}

func (s *fakeSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type staticSettings struct {
	s domain.Settings
}

func (p *staticSettings) Current() domain.Settings {
	return p.s
}

type postResult struct {
	info repo.RateLimitInfo
	err  error
}

type mockOutboundRepo struct {
	mu      sync.Mutex
	results []postResult
	posts   []string
	tokens  []string
}

func (m *mockOutboundRepo) PostMessage(ctx context.Context, token, channelID, content string) (repo.RateLimitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, channelID+"|"+content)
	m.tokens = append(m.tokens, token)
	if len(m.results) == 0 {
		return repo.RateLimitInfo{}, nil
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r.info, r.err
}

type mockCompletionRepo struct {
	reply  string
	err    error
	keys   []string
	system string
	prompt string
}

func (m *mockCompletionRepo) Complete(ctx context.Context, apiKey, systemPrompt, prompt string) (string, error) {
	m.keys = append(m.keys, apiKey)
	m.system = systemPrompt
	m.prompt = prompt
	return m.reply, m.err
}

type mockSettingsRepo struct {
	stored  *domain.Settings
	saved   []domain.Settings
	saveErr error
}

func (m *mockSettingsRepo) Load(ctx context.Context) (*domain.Settings, error) {
	return m.stored, nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, s domain.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *mockSettingsRepo) Close() error {
	return nil
}
