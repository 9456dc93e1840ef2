package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/mmdatafocus/voucher_desk/utils"
)

// Session holds the credentials requests are sent with and a one-shot readiness signal.
// Requests to protected paths wait for MarkReady, bounded by the auth-wait timeout.
type Session struct {
	mu       sync.RWMutex
	token    string
	role     string
	tenantId string
	ready    chan struct{}
	isReady  bool
	onExpire []func(message string)
}

func NewSession() *Session {
	return &Session{ready: make(chan struct{})}
}

// SetCredentials stores the token and role. It does not mark the session ready.
func (s *Session) SetCredentials(token, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = role
}

func (s *Session) SetTenantId(tenantId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantId = tenantId
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) TenantId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantId
}

// MarkReady releases every waiting request. Calling it twice is a no-op.
func (s *Session) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isReady {
		s.isReady = true
		close(s.ready)
	}
}

// Reset arms a fresh readiness signal, e.g. after logout.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isReady {
		s.isReady = false
		s.ready = make(chan struct{})
	}
}

func (s *Session) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isReady
}

// WaitReady blocks until MarkReady, the timeout or ctx is done. It reports whether the
// session became ready; a timeout is not an error and the caller proceeds anyway.
func (s *Session) WaitReady(ctx context.Context, timeout time.Duration) (bool, error) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ready:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Expired reports whether the stored token carries an exp claim before now.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := utils.TokenExpiry(s.Token())
	return ok && !exp.After(now)
}

// OnExpired registers a hook run after a 401/403 cleared the session; message is the toast text.
func (s *Session) OnExpired(fn func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = append(s.onExpire, fn)
}

// Clear drops the credentials and re-arms the readiness signal.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.role = ""
	s.tenantId = ""
	s.mu.Unlock()
	s.Reset()
}

func (s *Session) expire(message string) {
	s.Clear()
	s.mu.RLock()
	hooks := append([]func(string){}, s.onExpire...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(message)
	}
}
