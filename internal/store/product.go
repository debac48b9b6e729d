package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"emarket/internal/domain"
	"emarket/internal/observability"
)

var nameTokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ProductStore owns the catalog: items indexed by category, per-category id
// allocation and feedback counters. Mutations take the write lock; search is
// read-only and runs under the read lock so concurrent searches never block
// each other.
type ProductStore struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]*domain.Item // item key -> item
	// byCategory maps a category to its member item ids in allocation
	// order; maintained incrementally so search never scans the full
	// catalog.
	byCategory map[string][]int
	nextID     map[string]int // per-category monotonic counter, never reused
}

// NewProductStore creates an empty catalog.
func NewProductStore() *ProductStore {
	return &ProductStore{
		now:        time.Now,
		items:      make(map[string]*domain.Item),
		byCategory: make(map[string][]int),
		nextID:     make(map[string]int),
	}
}

// AddItem lists a new item and allocates the next id in its category.
func (s *ProductStore) AddItem(sellerID, category, name string, keywords []string, condition string, price float64, qty int) (domain.Item, error) {
	if condition == "" {
		condition = domain.ConditionNew
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID[category] + 1
	s.nextID[category] = id

	item := &domain.Item{
		ID:        id,
		Category:  category,
		Name:      name,
		Keywords:  append([]string(nil), keywords...),
		Condition: condition,
		SalePrice: price,
		Quantity:  qty,
		SellerID:  sellerID,
		CreatedAt: s.now(),
	}
	s.items[item.Key()] = item
	s.byCategory[category] = append(s.byCategory[category], id)
	observability.ItemsListed.WithLabelValues(category).Inc()
	return *item, nil
}

// UpdateQuantity sets an item's absolute remaining quantity. Only the owning
// seller may update; quantity 0 keeps the item but hides it from search.
func (s *ProductStore) UpdateQuantity(sellerID, category string, id, qty int) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ownedItemLocked(sellerID, category, id)
	if err != nil {
		return domain.Item{}, err
	}
	item.Quantity = qty
	return *item, nil
}

// ChangePrice updates an item's sale price. Only the owning seller may
// change it.
func (s *ProductStore) ChangePrice(sellerID, category string, id int, price float64) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ownedItemLocked(sellerID, category, id)
	if err != nil {
		return domain.Item{}, err
	}
	item.SalePrice = price
	return *item, nil
}

func (s *ProductStore) ownedItemLocked(sellerID, category string, id int) (*domain.Item, error) {
	item, ok := s.items[domain.ItemKey(category, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, domain.ItemKey(category, id))
	}
	if item.SellerID != sellerID {
		return nil, domain.ErrNotItemOwner
	}
	return item, nil
}

// GiveFeedback increments one of the item's thumbs counters.
func (s *ProductStore) GiveFeedback(category string, id int, vote string) (domain.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[domain.ItemKey(category, id)]
	if !ok {
		return domain.Feedback{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, domain.ItemKey(category, id))
	}
	if vote == "up" {
		item.Feedback.ThumbsUp++
	} else {
		item.Feedback.ThumbsDown++
	}
	return item.Feedback, nil
}

// GetItem returns a copy of one item.
func (s *ProductStore) GetItem(category string, id int) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[domain.ItemKey(category, id)]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, domain.ItemKey(category, id))
	}
	return copyItem(item), nil
}

// ListSellerItems returns the seller's items across all categories, ordered
// by category then id.
func (s *ProductStore) ListSellerItems(sellerID string) []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0)
	for _, item := range s.items {
		if item.SellerID == sellerID {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Search returns the category's in-stock items ranked by keyword match
// score. Each query keyword counts at most once per item: it matches either
// an entry of the item's keyword list or a token of the item's name, both
// case-insensitively. With keywords the result keeps only score > 0; with no
// keywords every in-stock item in the category is returned. Ordering is a
// total order: score desc, net feedback desc, price asc, item id asc.
func (s *ProductStore) Search(category string, keywords []string) []domain.Item {
	query := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			query = append(query, kw)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		item  domain.Item
		score int
	}
	results := make([]ranked, 0)
	for _, id := range s.byCategory[category] {
		item := s.items[domain.ItemKey(category, id)]
		if item.Quantity <= 0 {
			continue
		}
		score := matchScore(item, query)
		if len(query) > 0 && score == 0 {
			continue
		}
		results = append(results, ranked{item: copyItem(item), score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.item.Feedback.Net() != b.item.Feedback.Net() {
			return a.item.Feedback.Net() > b.item.Feedback.Net()
		}
		if a.item.SalePrice != b.item.SalePrice {
			return a.item.SalePrice < b.item.SalePrice
		}
		return a.item.ID < b.item.ID
	})

	out := make([]domain.Item, len(results))
	for i, r := range results {
		out[i] = r.item
	}
	return out
}

// matchScore counts query keywords satisfied by the item. A keyword matching
// both the keyword list and a name token still contributes 1.
func matchScore(item *domain.Item, query []string) int {
	if len(query) == 0 {
		return 0
	}
	terms := make(map[string]struct{}, len(item.Keywords))
	for _, kw := range item.Keywords {
		terms[strings.ToLower(kw)] = struct{}{}
	}
	for _, tok := range nameTokenPattern.Split(strings.ToLower(item.Name), -1) {
		if tok != "" {
			terms[tok] = struct{}{}
		}
	}
	score := 0
	for _, q := range query {
		if _, ok := terms[q]; ok {
			score++
		}
	}
	return score
}

// copyItem returns a value copy safe to hand out after the lock is released.
func copyItem(item *domain.Item) domain.Item {
	out := *item
	out.Keywords = append([]string(nil), item.Keywords...)
	return out
}
