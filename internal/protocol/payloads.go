package protocol

import (
	"encoding/json"
	"fmt"

	"emarket/internal/domain"
)

// Listing limits carried over from the catalog rules.
const (
	MaxNameLen     = 32
	MaxKeywords    = 5
	MaxKeywordLen  = 8
	MaxUserIDLen   = 32
	MaxCartName    = 32
	MaxSearchWords = MaxKeywords
)

// Payload is implemented by every per-action data struct.
type Payload interface {
	Validate() error
}

// DecodeData unmarshals an action's data object into its typed payload and
// validates required fields. Failures surface as domain.ErrInvalidInput,
// which the dispatcher reports as ValidationError.
func DecodeData(raw json.RawMessage, p Payload) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("%w: malformed data: %v", domain.ErrInvalidInput, err)
	}
	return p.Validate()
}

// CreateAccountData registers a new buyer or seller.
type CreateAccountData struct {
	Role       string `json:"role"`
	UserID     string `json:"user_id"`
	Credential string `json:"credential"`
}

func (d *CreateAccountData) Validate() error {
	if _, err := domain.ParseRole(d.Role); err != nil {
		return fmt.Errorf("%w: role must be buyer or seller", domain.ErrInvalidInput)
	}
	if d.UserID == "" || len(d.UserID) > MaxUserIDLen {
		return fmt.Errorf("%w: user_id must be 1..%d characters", domain.ErrInvalidInput, MaxUserIDLen)
	}
	if d.Credential == "" {
		return fmt.Errorf("%w: credential is required", domain.ErrInvalidInput)
	}
	return nil
}

// LoginData opens a new session.
type LoginData struct {
	UserID     string `json:"user_id"`
	Credential string `json:"credential"`
}

func (d *LoginData) Validate() error {
	if d.UserID == "" || d.Credential == "" {
		return fmt.Errorf("%w: user_id and credential are required", domain.ErrInvalidInput)
	}
	return nil
}

// SessionData carries only a session token (Logout, ValidateSession,
// ViewCart, ClearCart, GetPurchases, ListSavedCarts).
type SessionData struct {
	SessionToken string `json:"session_token"`
}

func (d *SessionData) Validate() error {
	if d.SessionToken == "" {
		return fmt.Errorf("%w: session_token is required", domain.ErrInvalidInput)
	}
	return nil
}

// CartEntryData adds or removes quantity for one cart entry.
type CartEntryData struct {
	SessionToken string `json:"session_token"`
	ItemKey      string `json:"item_key"`
	Quantity     int    `json:"quantity"`
}

func (d *CartEntryData) Validate() error {
	if d.SessionToken == "" {
		return fmt.Errorf("%w: session_token is required", domain.ErrInvalidInput)
	}
	if d.ItemKey == "" {
		return fmt.Errorf("%w: item_key is required", domain.ErrInvalidInput)
	}
	if _, _, err := domain.ParseItemKey(d.ItemKey); err != nil {
		return err
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// NamedCartData saves or restores a named cart snapshot.
type NamedCartData struct {
	SessionToken string `json:"session_token"`
	Name         string `json:"name"`
}

func (d *NamedCartData) Validate() error {
	if d.SessionToken == "" {
		return fmt.Errorf("%w: session_token is required", domain.ErrInvalidInput)
	}
	if d.Name == "" || len(d.Name) > MaxCartName {
		return fmt.Errorf("%w: name must be 1..%d characters", domain.ErrInvalidInput, MaxCartName)
	}
	return nil
}

// SellerRefData addresses one seller account (GetSellerRatingByID).
type SellerRefData struct {
	SellerID string `json:"seller_id"`
}

func (d *SellerRefData) Validate() error {
	if d.SellerID == "" {
		return fmt.Errorf("%w: seller_id is required", domain.ErrInvalidInput)
	}
	return nil
}

// AddItemData lists a new catalog item. Seller identity is resolved by the
// frontend (ValidateSession against the customer store) and forwarded here.
type AddItemData struct {
	SellerID  string   `json:"seller_id"`
	Category  string   `json:"category"`
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	Condition string   `json:"condition"`
	SalePrice *float64 `json:"sale_price"`
	Quantity  *int     `json:"item_quantity"`
}

func (d *AddItemData) Validate() error {
	if d.SellerID == "" {
		return fmt.Errorf("%w: seller_id is required", domain.ErrInvalidInput)
	}
	if d.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if d.Name == "" || len(d.Name) > MaxNameLen {
		return fmt.Errorf("%w: name must be 1..%d characters", domain.ErrInvalidInput, MaxNameLen)
	}
	if len(d.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: at most %d keywords", domain.ErrInvalidInput, MaxKeywords)
	}
	for _, kw := range d.Keywords {
		if kw == "" || len(kw) > MaxKeywordLen {
			return fmt.Errorf("%w: each keyword must be 1..%d characters", domain.ErrInvalidInput, MaxKeywordLen)
		}
	}
	switch d.Condition {
	case "", domain.ConditionNew, domain.ConditionUsed:
	default:
		return fmt.Errorf("%w: condition must be new or used", domain.ErrInvalidInput)
	}
	if d.SalePrice == nil || *d.SalePrice < 0 {
		return fmt.Errorf("%w: sale_price must be a non-negative number", domain.ErrInvalidInput)
	}
	if d.Quantity == nil || *d.Quantity < 0 {
		return fmt.Errorf("%w: item_quantity must be a non-negative integer", domain.ErrInvalidInput)
	}
	return nil
}

// UpdateQuantityData sets an item's absolute remaining quantity.
type UpdateQuantityData struct {
	SellerID string `json:"seller_id"`
	Category string `json:"category"`
	ItemID   int    `json:"item_id"`
	Quantity *int   `json:"item_quantity"`
}

func (d *UpdateQuantityData) Validate() error {
	if d.SellerID == "" {
		return fmt.Errorf("%w: seller_id is required", domain.ErrInvalidInput)
	}
	if d.Category == "" || d.ItemID <= 0 {
		return fmt.Errorf("%w: category and item_id are required", domain.ErrInvalidInput)
	}
	if d.Quantity == nil || *d.Quantity < 0 {
		return fmt.Errorf("%w: item_quantity must be a non-negative integer", domain.ErrInvalidInput)
	}
	return nil
}

// ChangePriceData updates an item's sale price.
type ChangePriceData struct {
	SellerID string   `json:"seller_id"`
	Category string   `json:"category"`
	ItemID   int      `json:"item_id"`
	NewPrice *float64 `json:"new_price"`
}

func (d *ChangePriceData) Validate() error {
	if d.SellerID == "" {
		return fmt.Errorf("%w: seller_id is required", domain.ErrInvalidInput)
	}
	if d.Category == "" || d.ItemID <= 0 {
		return fmt.Errorf("%w: category and item_id are required", domain.ErrInvalidInput)
	}
	if d.NewPrice == nil || *d.NewPrice < 0 {
		return fmt.Errorf("%w: new_price must be a non-negative number", domain.ErrInvalidInput)
	}
	return nil
}

// ListSellerItemsData lists a seller's catalog entries across categories.
type ListSellerItemsData struct {
	SellerID string `json:"seller_id"`
}

func (d *ListSellerItemsData) Validate() error {
	if d.SellerID == "" {
		return fmt.Errorf("%w: seller_id is required", domain.ErrInvalidInput)
	}
	return nil
}

// ItemRefData addresses one item (GetItem).
type ItemRefData struct {
	Category string `json:"category"`
	ItemID   int    `json:"item_id"`
}

func (d *ItemRefData) Validate() error {
	if d.Category == "" || d.ItemID <= 0 {
		return fmt.Errorf("%w: category and item_id are required", domain.ErrInvalidInput)
	}
	return nil
}

// FeedbackData records a thumbs up or down vote for one item.
type FeedbackData struct {
	Category string `json:"category"`
	ItemID   int    `json:"item_id"`
	Vote     string `json:"vote"`
}

func (d *FeedbackData) Validate() error {
	if d.Category == "" || d.ItemID <= 0 {
		return fmt.Errorf("%w: category and item_id are required", domain.ErrInvalidInput)
	}
	if d.Vote != "up" && d.Vote != "down" {
		return fmt.Errorf("%w: vote must be up or down", domain.ErrInvalidInput)
	}
	return nil
}

// SearchData runs a ranked catalog search.
type SearchData struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

func (d *SearchData) Validate() error {
	if d.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if len(d.Keywords) > MaxSearchWords {
		return fmt.Errorf("%w: at most %d keywords", domain.ErrInvalidInput, MaxSearchWords)
	}
	for _, kw := range d.Keywords {
		if len(kw) > MaxKeywordLen {
			return fmt.Errorf("%w: each keyword must be at most %d characters", domain.ErrInvalidInput, MaxKeywordLen)
		}
	}
	return nil
}
