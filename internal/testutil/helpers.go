package testutil

import (
	"net"
	"testing"
	"time"

	"emarket/internal/domain"
	"emarket/internal/store"
)

// SeedItem inserts a fixture item into a product store and returns the
// allocated copy.
func SeedItem(t *testing.T, s *store.ProductStore, opts ...func(*ItemOptions)) domain.Item {
	t.Helper()
	fixture := NewTestItem(opts...)
	item, err := s.AddItem(fixture.SellerID, fixture.Category, fixture.Name,
		fixture.Keywords, fixture.Condition, fixture.SalePrice, fixture.Quantity)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	for i := 0; i < fixture.Feedback.ThumbsUp; i++ {
		if _, err := s.GiveFeedback(item.Category, item.ID, "up"); err != nil {
			t.Fatalf("seed feedback: %v", err)
		}
	}
	for i := 0; i < fixture.Feedback.ThumbsDown; i++ {
		if _, err := s.GiveFeedback(item.Category, item.ID, "down"); err != nil {
			t.Fatalf("seed feedback: %v", err)
		}
	}
	item.Feedback = fixture.Feedback
	return item
}

// SeedBuyerSession creates an account and logs it in, returning the token.
func SeedBuyerSession(t *testing.T, s *store.CustomerStore) string {
	t.Helper()
	return seedSession(t, s, domain.RoleBuyer)
}

// SeedSellerSession creates a seller account and logs it in.
func SeedSellerSession(t *testing.T, s *store.CustomerStore) string {
	t.Helper()
	return seedSession(t, s, domain.RoleSeller)
}

func seedSession(t *testing.T, s *store.CustomerStore, role domain.Role) string {
	t.Helper()
	userID := NextID("user")
	if _, err := s.CreateAccount(role, userID, "secret"); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	sess, err := s.Login(userID, "secret")
	if err != nil {
		t.Fatalf("seed login: %v", err)
	}
	return sess.Token
}

// FreeAddr reserves a loopback port and returns it as a listen address.
func FreeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// WaitForListener blocks until the address accepts connections or the
// timeout elapses.
func WaitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener %s never came up", addr)
}
