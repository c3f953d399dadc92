// Package session owns the client's authentication lifecycle: login with
// retry against a cold backend, startup token verification, and logout.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ats-client/internal/api"
	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/logger"
	"ats-client/internal/common/metrics"
	"ats-client/internal/models"
)

// State is the session lifecycle state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	// StateExpired marks a token the server no longer accepts. It is
	// transient: a failed Verify moves through it straight to
	// Unauthenticated.
	StateExpired State = "expired"
)

const (
	maxLoginAttempts = 3
	loginBackoff     = 2 * time.Second
)

// invalidCredentialsMsg is the literal server message that gets normalized
// to friendlier wording.
const invalidCredentialsMsg = "Invalid credentials"

// AuthAPI is the slice of the auth service the store needs.
type AuthAPI interface {
	Health(ctx context.Context) error
	Login(ctx context.Context, userID, password string) (*api.LoginResult, error)
	Verify(ctx context.Context) (*models.Principal, error)
}

// TokenBinder attaches or removes the bearer token on outgoing calls.
// Implemented by the shared transport.
type TokenBinder interface {
	SetBearerToken(token string)
	ClearBearerToken()
}

// ProgressFunc receives human-readable status while a login is in flight.
type ProgressFunc func(status string)

// Store is the single session instance of a running client. Callers must
// not run two AttemptLogin calls concurrently; the store rejects the second.
type Store struct {
	auth   AuthAPI
	binder TokenBinder
	tokens TokenStore
	clock  Clock
	log    logger.Logger

	mu            sync.Mutex
	state         State
	token         string
	principal     *models.Principal
	loginInFlight bool
}

func NewStore(auth AuthAPI, binder TokenBinder, tokens TokenStore, clock Clock, log logger.Logger) *Store {
	return &Store{
		auth:   auth,
		binder: binder,
		tokens: tokens,
		clock:  clock,
		log:    log.WithFields(map[string]interface{}{"component": "session"}),
		state:  StateUnauthenticated,
	}
}

func (s *Store) lock()   { s.mu.Lock() }
func (s *Store) unlock() { s.mu.Unlock() }

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.lock()
	defer s.unlock()
	return s.state
}

// Principal returns the logged-in principal, if any.
func (s *Store) Principal() *models.Principal {
	s.lock()
	defer s.unlock()
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

// IsAuthenticated reports whether a verified session exists.
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// IsAdmin reports whether the principal holds the admin role. This is a UX
// gate only; authorization is enforced server-side.
func (s *Store) IsAdmin() bool {
	p := s.Principal()
	return p != nil && p.Role == "admin"
}

// AttemptLogin logs in with up to three attempts. A best-effort health probe
// runs first to wake a sleeping backend; its failure is ignored. Only
// network-class failures are retried, with a fixed backoff between attempts
// and a progress callback so the operator sees what is happening.
func (s *Store) AttemptLogin(ctx context.Context, userID, password string, onProgress ProgressFunc) error {
	if onProgress == nil {
		onProgress = func(string) {}
	}

	s.lock()
	if s.loginInFlight {
		s.unlock()
		return clierrors.NewAuthError("A login attempt is already in progress")
	}
	s.loginInFlight = true
	s.state = StateAuthenticating
	s.unlock()

	err := s.runLogin(ctx, userID, password, onProgress)

	s.lock()
	s.loginInFlight = false
	if err != nil && s.state == StateAuthenticating {
		s.state = StateUnauthenticated
	}
	s.unlock()
	return err
}

func (s *Store) runLogin(ctx context.Context, userID, password string, onProgress ProgressFunc) error {
	onProgress("Connecting to server...")

	// Wake a cold backend. Not a precondition for login.
	if err := s.auth.Health(ctx); err != nil {
		s.log.Warn("health probe failed", map[string]interface{}{"error": err.Error()})
	}

	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		result, err := s.auth.Login(ctx, userID, password)
		if err == nil {
			metrics.LoginAttempts.WithLabelValues("success").Inc()
			return s.adopt(ctx, result.Token, result.Principal)
		}

		lastErr = err
		if !clierrors.IsRetryable(err) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return normalizeLoginError(err)
		}

		metrics.LoginAttempts.WithLabelValues("network_error").Inc()
		s.log.Warn("login attempt failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < maxLoginAttempts {
			onProgress(fmt.Sprintf("Server is waking up, retrying (%d/%d)...", attempt, maxLoginAttempts))
			if err := s.clock.Sleep(ctx, loginBackoff); err != nil {
				return clierrors.NewNetworkError("Login cancelled", err)
			}
		}
	}

	return normalizeLoginError(lastErr)
}

// adopt installs a verified token and principal together, persists the
// token and binds the bearer header.
func (s *Store) adopt(ctx context.Context, token string, principal models.Principal) error {
	if err := s.tokens.Save(ctx, token); err != nil {
		s.log.Warn("failed to persist session token", map[string]interface{}{"error": err.Error()})
	}
	s.binder.SetBearerToken(token)

	s.lock()
	s.token = token
	s.principal = &principal
	s.state = StateAuthenticated
	s.unlock()

	s.log.Info("session established", map[string]interface{}{
		"userid": principal.ID,
		"role":   principal.Role,
	})
	return nil
}

// Verify restores a persisted session at startup. Any failure, network
// included, fails closed: the token is discarded and the session ends up
// Unauthenticated. Verification is never retried.
func (s *Store) Verify(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn("failed to read persisted token", map[string]interface{}{"error": err.Error()})
		s.Logout(ctx)
		return clierrors.NewAuthError("Stored session could not be read")
	}
	if token == "" {
		return nil
	}

	s.binder.SetBearerToken(token)

	principal, err := s.auth.Verify(ctx)
	if err != nil {
		s.lock()
		s.state = StateExpired
		s.unlock()
		s.Logout(ctx)
		return err
	}

	s.lock()
	s.token = token
	s.principal = principal
	s.state = StateAuthenticated
	s.unlock()

	s.log.Info("session restored", map[string]interface{}{"userid": principal.ID})
	return nil
}

// Logout clears the session, the persisted token and the bearer header.
// Idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.lock()
	s.token = ""
	s.principal = nil
	s.state = StateUnauthenticated
	s.unlock()

	s.binder.ClearBearerToken()
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn("failed to clear persisted token", map[string]interface{}{"error": err.Error()})
	}
}

// normalizeLoginError rewrites the server's literal invalid-credentials
// message to friendlier wording; every other message passes through.
func normalizeLoginError(err error) error {
	ce := clierrors.AsClientError(err)
	if ce == nil {
		return err
	}
	if ce.Message == invalidCredentialsMsg {
		return clierrors.NewAuthError("Check username and password")
	}
	return err
}
