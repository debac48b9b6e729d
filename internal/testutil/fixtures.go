package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"emarket/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// NextID generates a unique identifier for test fixtures
func NextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// ItemOptions allows customizing item fixture creation
type ItemOptions struct {
	Category  string
	Name      string
	Keywords  []string
	Condition string
	SalePrice float64
	Quantity  int
	Feedback  domain.Feedback
	SellerID  string
}

// NewTestItem creates a test item with sensible defaults.
// Pass options to override specific fields. The ID is left zero: the
// product store allocates ids itself.
func NewTestItem(opts ...func(*ItemOptions)) *domain.Item {
	o := &ItemOptions{
		Category:  "books",
		Name:      fmt.Sprintf("Test Item %d", idCounter.Add(1)),
		Keywords:  []string{"test"},
		Condition: domain.ConditionNew,
		SalePrice: 10,
		Quantity:  1,
		SellerID:  "seller1",
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Item{
		Category:  o.Category,
		Name:      o.Name,
		Keywords:  o.Keywords,
		Condition: o.Condition,
		SalePrice: o.SalePrice,
		Quantity:  o.Quantity,
		Feedback:  o.Feedback,
		SellerID:  o.SellerID,
		CreatedAt: time.Now(),
	}
}

// Item option functions

func WithCategory(category string) func(*ItemOptions) {
	return func(o *ItemOptions) { o.Category = category }
}

func WithName(name string) func(*ItemOptions) {
	return func(o *ItemOptions) { o.Name = name }
}

func WithKeywords(keywords ...string) func(*ItemOptions) {
	return func(o *ItemOptions) { o.Keywords = keywords }
}

func WithPrice(price float64) func(*ItemOptions) {
	return func(o *ItemOptions) { o.SalePrice = price }
}

func WithQuantity(qty int) func(*ItemOptions) {
	return func(o *ItemOptions) { o.Quantity = qty }
}

func WithFeedback(up, down int) func(*ItemOptions) {
	return func(o *ItemOptions) { o.Feedback = domain.Feedback{ThumbsUp: up, ThumbsDown: down} }
}

func WithSeller(sellerID string) func(*ItemOptions) {
	return func(o *ItemOptions) { o.SellerID = sellerID }
}
