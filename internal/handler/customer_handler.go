// Package handler binds the wire actions of each store to its in-memory
// state. Handlers decode the action's typed payload once at the boundary and
// translate store results into response data.
package handler

import (
	"context"
	"encoding/json"

	"emarket/internal/domain"
	"emarket/internal/protocol"
	"emarket/internal/server"
	"emarket/internal/store"
)

// CustomerHandler exposes the customer store's action table.
type CustomerHandler struct {
	store *store.CustomerStore
}

// NewCustomerHandler creates the handler for one customer store.
func NewCustomerHandler(s *store.CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: s}
}

// Mux returns the fixed action table for the customer store. MakePurchase is
// registered but unimplemented; it answers NotImplemented rather than
// UnknownAction so callers can tell the difference.
func (h *CustomerHandler) Mux() server.Mux {
	return server.Mux{
		protocol.ActionCreateAccount:   h.CreateAccount,
		protocol.ActionLogin:           h.Login,
		protocol.ActionLogout:          h.Logout,
		protocol.ActionValidateSession: h.ValidateSession,
		protocol.ActionAddToCart:       h.AddToCart,
		protocol.ActionRemoveFromCart:  h.RemoveFromCart,
		protocol.ActionViewCart:        h.ViewCart,
		protocol.ActionClearCart:       h.ClearCart,
		protocol.ActionSaveCart:        h.SaveCart,
		protocol.ActionLoadCart:        h.LoadCart,
		protocol.ActionListSavedCarts:  h.ListSavedCarts,
		protocol.ActionGetPurchases:    h.GetPurchases,
		protocol.ActionMakePurchase:    h.MakePurchase,

		protocol.ActionGetSellerRatingByID:      h.GetSellerRatingByID,
		protocol.ActionGetSellerRatingBySession: h.GetSellerRatingBySession,
	}
}

// AccountResponse identifies an account or session owner.
type AccountResponse struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// LoginResponse carries the new session token.
type LoginResponse struct {
	UserID       string `json:"user_id"`
	SessionToken string `json:"session_token"`
}

// CartResponse carries a cart snapshot.
type CartResponse struct {
	Cart domain.Cart `json:"cart"`
}

// SellerRatingResponse carries a seller's rating counters.
type SellerRatingResponse struct {
	SellerID  string          `json:"seller_id"`
	Feedback  domain.Feedback `json:"seller_feedback"`
	ItemsSold int             `json:"items_sold"`
}

func (h *CustomerHandler) CreateAccount(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.CreateAccountData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return nil, err
	}
	acct, err := h.store.CreateAccount(role, p.UserID, p.Credential)
	if err != nil {
		return nil, err
	}
	return AccountResponse{UserID: acct.UserID, Role: acct.Role}, nil
}

func (h *CustomerHandler) Login(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.LoginData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	sess, err := h.store.Login(p.UserID, p.Credential)
	if err != nil {
		return nil, err
	}
	return LoginResponse{UserID: sess.UserID, SessionToken: sess.Token}, nil
}

func (h *CustomerHandler) Logout(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	h.store.Logout(p.SessionToken)
	return map[string]bool{"logged_out": true}, nil
}

func (h *CustomerHandler) ValidateSession(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	sess, err := h.store.ValidateSession(p.SessionToken)
	if err != nil {
		return nil, err
	}
	return AccountResponse{UserID: sess.UserID, Role: sess.Role}, nil
}

func (h *CustomerHandler) AddToCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.CartEntryData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	cart, err := h.store.AddToCart(p.SessionToken, p.ItemKey, p.Quantity)
	if err != nil {
		return nil, err
	}
	return CartResponse{Cart: cart}, nil
}

func (h *CustomerHandler) RemoveFromCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.CartEntryData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	cart, err := h.store.RemoveFromCart(p.SessionToken, p.ItemKey, p.Quantity)
	if err != nil {
		return nil, err
	}
	return CartResponse{Cart: cart}, nil
}

func (h *CustomerHandler) ViewCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	cart, err := h.store.ViewCart(p.SessionToken)
	if err != nil {
		return nil, err
	}
	return CartResponse{Cart: cart}, nil
}

func (h *CustomerHandler) ClearCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	if err := h.store.ClearCart(p.SessionToken); err != nil {
		return nil, err
	}
	return map[string]bool{"cleared": true}, nil
}

func (h *CustomerHandler) SaveCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.NamedCartData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	if err := h.store.SaveCart(p.SessionToken, p.Name); err != nil {
		return nil, err
	}
	return map[string]any{"saved": true, "name": p.Name}, nil
}

func (h *CustomerHandler) LoadCart(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.NamedCartData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	cart, err := h.store.LoadCart(p.SessionToken, p.Name)
	if err != nil {
		return nil, err
	}
	return CartResponse{Cart: cart}, nil
}

func (h *CustomerHandler) ListSavedCarts(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	names, err := h.store.ListSavedCarts(p.SessionToken)
	if err != nil {
		return nil, err
	}
	return map[string][]string{"names": names}, nil
}

func (h *CustomerHandler) GetPurchases(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	purchases, err := h.store.Purchases(p.SessionToken)
	if err != nil {
		return nil, err
	}
	return map[string][]string{"purchases": purchases}, nil
}

func (h *CustomerHandler) GetSellerRatingByID(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SellerRefData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	acct, err := h.store.SellerRating(p.SellerID)
	if err != nil {
		return nil, err
	}
	return SellerRatingResponse{SellerID: acct.UserID, Feedback: acct.Feedback, ItemsSold: acct.ItemsSold}, nil
}

func (h *CustomerHandler) GetSellerRatingBySession(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SessionData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	acct, err := h.store.SellerRatingBySession(p.SessionToken)
	if err != nil {
		return nil, err
	}
	return SellerRatingResponse{SellerID: acct.UserID, Feedback: acct.Feedback, ItemsSold: acct.ItemsSold}, nil
}

// MakePurchase is deliberately unimplemented: financial transaction
// processing is outside this system's scope.
func (h *CustomerHandler) MakePurchase(ctx context.Context, data json.RawMessage) (any, error) {
	return nil, domain.ErrNotImplemented
}
