package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrNotItemOwner = errors.New("item does not belong to this seller")
)

// Item conditions accepted at listing time.
const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// Feedback holds the thumbs-up/down counters for an item.
type Feedback struct {
	ThumbsUp   int `json:"thumbs_up"`
	ThumbsDown int `json:"thumbs_down"`
}

// Net returns thumbs_up minus thumbs_down, the ranking input for search.
func (f Feedback) Net() int {
	return f.ThumbsUp - f.ThumbsDown
}

// Item is a catalog listing. The ID is unique within its category for the
// lifetime of the process and is never reused. An item is never physically
// deleted; quantity 0 removes it from search results.
type Item struct {
	ID        int       `json:"item_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	Condition string    `json:"condition"`
	SalePrice float64   `json:"sale_price"`
	Quantity  int       `json:"item_quantity"`
	Feedback  Feedback  `json:"item_feedback"`
	SellerID  string    `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the item's cross-store reference "<category>:<item_id>".
func (i *Item) Key() string {
	return ItemKey(i.Category, i.ID)
}

// ItemKey builds the cross-store reference for an item.
func ItemKey(category string, id int) string {
	return fmt.Sprintf("%s:%d", category, id)
}

// ParseItemKey splits an item key back into category and id.
func ParseItemKey(key string) (string, int, error) {
	idx := strings.LastIndex(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, fmt.Errorf("%w: malformed item key %q", ErrInvalidInput, key)
	}
	id, err := strconv.Atoi(key[idx+1:])
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: malformed item key %q", ErrInvalidInput, key)
	}
	return key[:idx], id, nil
}
