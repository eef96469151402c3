package usecase

import (
	"context"
	"sync"

	appconfig "github.com/Gogfather/thegogfather.com/internal/config"

	"github.com/Gogfather/thegogfather.com/internal/auth/config"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/shared/eventbus"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateSignedOut
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSignedOut:
		return "signed-out"
	default:
		return "uninitialized"
	}
}

// Listener observes identity changes. It fires once when the session first
// becomes ready and again on every subsequent sign-in or sign-out.
type Listener func(identity model.Identity, ready bool)

// Session tracks the sign-in lifecycle for one deployment. It owns the
// authorization predicate that gates every mutating operation.
type Session struct {
	mu        sync.RWMutex
	state     State
	identity  model.Identity
	configErr error
	token     string
	listeners []Listener

	uc      AuthUsecaseInterface
	appCfg  *appconfig.Config
	authCfg *config.Config
	bus     eventbus.EventBusInterface
	log     logger.Logger
}

// NewSession creates an uninitialized session. bus may be nil; sign-in and
// sign-out events are then not announced.
func NewSession(uc AuthUsecaseInterface, appCfg *appconfig.Config, authCfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) *Session {
	return &Session{
		uc:      uc,
		appCfg:  appCfg,
		authCfg: authCfg,
		bus:     bus,
		log:     log.WithComponent("auth-session"),
	}
}

// Initialize establishes the initial identity. With an invalid config the
// session becomes ready with no identity and the configuration error flagged,
// and no network call is made. Otherwise an initial auth token is exchanged
// when present; failing that, the anonymous-allowed policy signs in
// anonymously and the credential-required policy waits for SignIn.
func (s *Session) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = StateInitializing

	if !s.appCfg.Valid() {
		s.configErr = ErrConfigInvalid
		s.state = StateReady
		identity := s.identity
		s.mu.Unlock()
		s.log.Warn("Configuration invalid, session ready with no identity")
		s.notify(identity, true)
		return
	}
	s.mu.Unlock()

	switch {
	case s.appCfg.InitialAuthToken != "":
		user, token, err := s.uc.ExchangeToken(ctx, s.appCfg.InitialAuthToken)
		if err != nil {
			s.log.Warnf("Initial token exchange failed: %v", err)
			s.becomeReady(model.Identity{}, "")
			return
		}
		s.becomeReady(model.IdentityOf(user), token)

	case s.authCfg.Policy() == config.PolicyAnonymousAllowed:
		user, token, err := s.uc.SignInAnonymously(ctx)
		if err != nil {
			s.log.Warnf("Anonymous sign-in failed: %v", err)
			s.becomeReady(model.Identity{}, "")
			return
		}
		s.becomeReady(model.IdentityOf(user), token)

	default:
		// Credential-required: ready with no identity until SignIn.
		s.becomeReady(model.Identity{}, "")
	}
}

// SignIn performs an interactive email/password sign-in.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	user, token, err := s.uc.Login(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	s.becomeReady(model.IdentityOf(user), token)
	return nil
}

// SignOut terminates the session.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.identity = model.Identity{}
	s.token = ""
	s.state = StateSignedOut
	s.mu.Unlock()

	if token != "" {
		if err := s.uc.Logout(ctx, token); err != nil {
			s.log.Warnf("Logout call failed: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
			eventbus.EventTypeUserSignedOut, nil, "auth-session"))
	}
	s.notify(model.Identity{}, false)
}

// OnStateChange registers a listener. If the session is already ready the
// listener fires immediately with the current identity.
func (s *Session) OnStateChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	fireNow := s.state == StateReady
	identity := s.identity
	s.mu.Unlock()

	if fireNow {
		l(identity, true)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the current identity (zero when signed out or anonymous
// sign-in has not completed).
func (s *Session) Identity() model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Ready reports whether initialization has completed.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady
}

// ConfigErr returns the configuration error flagged during initialization.
func (s *Session) ConfigErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configErr
}

// Token returns the current session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthorized is the authorization predicate gating mutating operations.
// It is computed fresh on every call, never cached: ready, an identity
// present, and under the credential-required policy that identity must not
// be anonymous.
func (s *Session) IsAuthorized() bool {
	s.mu.RLock()
	ready := s.state == StateReady
	identity := s.identity
	s.mu.RUnlock()

	if !ready || identity.IsZero() {
		return false
	}
	if s.authCfg.Policy() == config.PolicyCredentialRequired && identity.Anonymous {
		return false
	}
	return true
}

// IsAuthorizedIdentity evaluates the same predicate against an arbitrary
// identity, for request-scoped checks where the identity comes from a token
// rather than this session.
func (s *Session) IsAuthorizedIdentity(identity model.Identity) bool {
	if identity.IsZero() {
		return false
	}
	if s.authCfg.Policy() == config.PolicyCredentialRequired && identity.Anonymous {
		return false
	}
	return true
}

func (s *Session) becomeReady(identity model.Identity, token string) {
	s.mu.Lock()
	s.identity = identity
	s.token = token
	s.state = StateReady
	s.mu.Unlock()

	if s.bus != nil && !identity.IsZero() {
		s.bus.PublishAndForget(context.Background(), eventbus.NewBasicEventWithSource(
			eventbus.EventTypeUserAuthenticated, identity, "auth-session"))
	}
	s.notify(identity, true)
}

func (s *Session) notify(identity model.Identity, ready bool) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(identity, ready)
	}
}
