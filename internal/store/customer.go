// Package store implements the two in-memory backend stores. State is
// volatile: a store process terminating loses everything it owns, which is
// accepted behavior for this system.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"emarket/internal/domain"
	"emarket/internal/observability"
)

// CustomerStore owns accounts, sessions, active carts, named saved carts and
// purchase history. All state is guarded by one RWMutex; no operation does
// I/O under the lock.
type CustomerStore struct {
	mu      sync.RWMutex
	timeout time.Duration
	now     func() time.Time

	accounts   map[string]*domain.Account        // user_id -> account
	sessions   map[string]*domain.Session        // token -> session (expired sessions kept as tombstones)
	carts      map[string]domain.Cart            // token -> active cart
	savedCarts map[string]map[string]domain.Cart // user_id -> name -> snapshot
	purchases  map[string][]string               // user_id -> item keys
}

// NewCustomerStore creates an empty store with the given session timeout
// window.
func NewCustomerStore(timeout time.Duration) *CustomerStore {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &CustomerStore{
		timeout:    timeout,
		now:        time.Now,
		accounts:   make(map[string]*domain.Account),
		sessions:   make(map[string]*domain.Session),
		carts:      make(map[string]domain.Cart),
		savedCarts: make(map[string]map[string]domain.Cart),
		purchases:  make(map[string][]string),
	}
}

// CreateAccount registers a new buyer or seller. The user_id is the login
// identity and must be unique.
func (s *CustomerStore) CreateAccount(role domain.Role, userID, credential string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[userID]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountExists, userID)
	}
	acct := &domain.Account{
		UserID:     userID,
		Credential: credential,
		Role:       role,
		CreatedAt:  s.now(),
	}
	s.accounts[userID] = acct
	return acct, nil
}

// Login opens a new session on credential match. A user may hold any number
// of concurrent sessions; each gets its own cart.
func (s *CustomerStore) Login(userID, credential string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok || acct.Credential != credential {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	sess := &domain.Session{
		Token:        uuid.NewString(),
		UserID:       acct.UserID,
		Role:         acct.Role,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.Token] = sess
	s.carts[sess.Token] = make(domain.Cart)
	observability.SessionsActive.Inc()

	out := *sess
	return &out, nil
}

// Logout expires the session. Idempotent: unknown or already-expired tokens
// are a no-op success.
func (s *CustomerStore) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(token, "logout")
}

// ValidateSession resolves a token to its owner, refreshing last_activity
// like any authenticated action. The frontend routers use this to resolve
// identity before forwarding seller requests to the product store.
func (s *CustomerStore) ValidateSession(token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchLocked(token)
	if err != nil {
		return nil, err
	}
	out := *sess
	return &out, nil
}

// touchLocked validates the token and refreshes last_activity. A session
// found past its idle window is expired on the spot rather than waiting for
// the sweeper. Callers must hold the write lock.
func (s *CustomerStore) touchLocked(token string) (*domain.Session, error) {
	sess, ok := s.sessions[token]
	if !ok || sess.Expired {
		return nil, domain.ErrSessionInvalid
	}
	now := s.now()
	if sess.IdleSince(now) > s.timeout {
		s.expireLocked(token, "idle")
		return nil, domain.ErrSessionInvalid
	}
	sess.LastActivity = now
	return sess, nil
}

// expireLocked transitions a session to its terminal expired state and drops
// its active cart. Safe to call for unknown or already-expired tokens.
func (s *CustomerStore) expireLocked(token, reason string) {
	sess, ok := s.sessions[token]
	if !ok || sess.Expired {
		return
	}
	sess.Expired = true
	delete(s.carts, token)
	observability.SessionsActive.Dec()
	observability.SessionsExpired.WithLabelValues(reason).Inc()
}

// touchBuyerLocked is touchLocked plus a buyer-role check for cart and
// purchase-history operations.
func (s *CustomerStore) touchBuyerLocked(token string) (*domain.Session, error) {
	sess, err := s.touchLocked(token)
	if err != nil {
		return nil, err
	}
	if sess.Role != domain.RoleBuyer {
		return nil, domain.ErrRoleMismatch
	}
	return sess, nil
}

// AddToCart reserves quantity of an item in the session's active cart. The
// item key is opaque here; existence in the catalog is checked by the caller
// before committing, so the reservation is advisory.
func (s *CustomerStore) AddToCart(token, itemKey string, qty int) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	cart := s.carts[sess.Token]
	cart[itemKey] += qty
	return cart.Clone(), nil
}

// RemoveFromCart releases quantity from one cart entry, deleting the entry
// when it reaches zero.
func (s *CustomerStore) RemoveFromCart(token, itemKey string, qty int) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	cart := s.carts[sess.Token]
	held, ok := cart[itemKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotInCart, itemKey)
	}
	if qty > held {
		return nil, fmt.Errorf("%w: cannot remove %d of %d held", domain.ErrInvalidInput, qty, held)
	}
	if qty == held {
		delete(cart, itemKey)
	} else {
		cart[itemKey] = held - qty
	}
	return cart.Clone(), nil
}

// ViewCart returns a copy of the session's active cart.
func (s *CustomerStore) ViewCart(token string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	return s.carts[sess.Token].Clone(), nil
}

// ClearCart empties the session's active cart. Saved snapshots are not
// touched.
func (s *CustomerStore) ClearCart(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return err
	}
	s.carts[sess.Token] = make(domain.Cart)
	return nil
}

// SaveCart snapshots the active cart under a name. Snapshots belong to the
// user, not the session, so they outlive logout and expiry.
func (s *CustomerStore) SaveCart(token, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return err
	}
	saved, ok := s.savedCarts[sess.UserID]
	if !ok {
		saved = make(map[string]domain.Cart)
		s.savedCarts[sess.UserID] = saved
	}
	saved[name] = s.carts[sess.Token].Clone()
	return nil
}

// LoadCart replaces the active cart with the named snapshot.
func (s *CustomerStore) LoadCart(token, name string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	snapshot, ok := s.savedCarts[sess.UserID][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSavedCartNotFound, name)
	}
	s.carts[sess.Token] = snapshot.Clone()
	return snapshot.Clone(), nil
}

// ListSavedCarts returns the user's snapshot names, sorted.
func (s *CustomerStore) ListSavedCarts(token string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.savedCarts[sess.UserID]))
	for name := range s.savedCarts[sess.UserID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Purchases returns the user's purchase history. History is only appended by
// the purchase flow, which is not implemented, so this returns whatever has
// been recorded (typically empty).
func (s *CustomerStore) Purchases(token string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchBuyerLocked(token)
	if err != nil {
		return nil, err
	}
	hist := s.purchases[sess.UserID]
	out := make([]string, len(hist))
	copy(out, hist)
	return out, nil
}

// SellerRating returns a seller's feedback counters and sale count by id.
// The lookup is public: no session is required to look up a seller.
func (s *CustomerStore) SellerRating(sellerID string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[sellerID]
	if !ok || acct.Role != domain.RoleSeller {
		return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrSellerNotFound, sellerID)
	}
	return *acct, nil
}

// SellerRatingBySession returns the calling seller's own rating, refreshing
// the session like any authenticated action.
func (s *CustomerStore) SellerRatingBySession(token string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touchLocked(token)
	if err != nil {
		return domain.Account{}, err
	}
	if sess.Role != domain.RoleSeller {
		return domain.Account{}, domain.ErrRoleMismatch
	}
	acct, ok := s.accounts[sess.UserID]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrSellerNotFound, sess.UserID)
	}
	return *acct, nil
}

// SweepExpired expires every active session idle beyond the timeout window
// and returns how many it expired. The sweeper and regular requests share
// the same write lock, so a sweep never races an activity refresh.
func (s *CustomerStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for token, sess := range s.sessions {
		if !sess.Expired && sess.IdleSince(now) > s.timeout {
			s.expireLocked(token, "sweeper")
			n++
		}
	}
	return n
}

// ActiveSessions counts sessions that have not expired. Sessions past their
// idle window but not yet swept still count; they are expired lazily on next
// use or by the sweeper.
func (s *CustomerStore) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if !sess.Expired {
			n++
		}
	}
	return n
}
