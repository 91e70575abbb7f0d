package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator checks customer credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Customer, error)
}

// Deps wires the per-session cart and checkout. Checkout.Cart and Checkout.Auth are filled per session.
type Deps struct {
	Local    cartsvc.BackendFor
	Remote   cartsvc.BackendFor
	Auth     Authenticator
	Policy   cartsvc.MergePolicy
	Checkout checkout.Deps
	TTL      time.Duration
	Logger   *log.Logger
}

// Session is one shopper's authentication state with the cart and checkout bound to it.
type Session struct {
	token     string
	deviceID  string
	expiresAt time.Time

	mu         sync.RWMutex
	customerID string
	cart       *cartsvc.Store
	checkout   *checkout.Orchestrator
}

func (s *Session) Token() string { return s.token }

func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func (s *Session) DeviceID() string { return s.deviceID }

// CustomerID reports the authenticated customer, if any.
func (s *Session) CustomerID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customerID, s.customerID != ""
}

func (s *Session) Cart() *cartsvc.Store { return s.cart }

// Checkout returns the checkout for the current authentication state.
func (s *Session) Checkout() *checkout.Orchestrator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkout
}

func (s *Session) detach() {
	s.cart.Detach()
}

// Service issues sessions and flips their authentication state.
type Service struct {
	deps   Deps
	tokens *tokenManager
}

func New(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	if deps.TTL <= 0 {
		deps.TTL = 24 * time.Hour
	}
	return &Service{deps: deps, tokens: newTokenManager()}
}

// Open starts an anonymous session for deviceID, or for a new device when deviceID is empty.
// An existing device id picks up the cart stored for that device.
func (s *Service) Open(ctx context.Context, deviceID string) (*Session, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	sess := &Session{deviceID: deviceID}
	sel := cartsvc.NewSelector(sess, s.deps.Local, s.deps.Remote)
	sess.cart = cartsvc.NewStore(sel, s.deps.Policy, s.deps.Logger)
	sess.checkout = s.newCheckout(sess)

	if _, err := s.tokens.Issue(sess, s.deps.TTL); err != nil {
		return nil, err
	}
	if _, err := sess.cart.Reload(ctx); err != nil {
		s.deps.Logger.Printf("session: initial load device=%s error=%v", deviceID, err)
	}
	s.deps.Logger.Printf("session: opened device=%s", deviceID)
	return sess, nil
}

// Lookup returns the live session for token.
func (s *Service) Lookup(token string) (*Session, error) {
	sess, ok := s.tokens.Validate(token)
	if !ok {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

// Login authenticates the session. The next cart operation goes to the customer cart; the
// device cart is merged or left alone according to the merge policy.
func (s *Service) Login(ctx context.Context, token, email, password string) (*Session, *domain.Customer, error) {
	sess, err := s.Lookup(token)
	if err != nil {
		return nil, nil, err
	}
	cust, err := s.deps.Auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	sess.customerID = cust.ID
	sess.checkout = s.newCheckout(sess)
	sess.mu.Unlock()

	if _, err := sess.cart.Authenticated(ctx); err != nil {
		s.deps.Logger.Printf("session: login reload customer=%s error=%v", cust.ID, err)
		return sess, cust, err
	}
	s.deps.Logger.Printf("session: login device=%s customer=%s", sess.deviceID, cust.ID)
	return sess, cust, nil
}

// Logout drops the customer from the session; the device cart becomes active again.
func (s *Service) Logout(ctx context.Context, token string) (*Session, error) {
	sess, err := s.Lookup(token)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	sess.customerID = ""
	sess.checkout = s.newCheckout(sess)
	sess.mu.Unlock()

	if _, err := sess.cart.LoggedOut(ctx); err != nil {
		return sess, err
	}
	s.deps.Logger.Printf("session: logout device=%s", sess.deviceID)
	return sess, nil
}

// Close ends the session. Results of operations still in flight are discarded.
func (s *Service) Close(token string) {
	s.tokens.Revoke(token)
}

// Sweep removes expired sessions.
func (s *Service) Sweep() int {
	return s.tokens.Sweep()
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.deps.Logger.Printf("session: swept %d expired", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// TTLSeconds exposes the session lifetime in seconds.
func (s *Service) TTLSeconds() int {
	return int(s.deps.TTL.Seconds())
}

func (s *Service) newCheckout(sess *Session) *checkout.Orchestrator {
	deps := s.deps.Checkout
	deps.Cart = sess.cart
	deps.Auth = sess
	if deps.Logger == nil {
		deps.Logger = s.deps.Logger
	}
	return checkout.New(deps)
}
