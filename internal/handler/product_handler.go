package handler

import (
	"context"
	"encoding/json"

	"emarket/internal/domain"
	"emarket/internal/protocol"
	"emarket/internal/server"
	"emarket/internal/store"
)

// ProductHandler exposes the product store's action table.
type ProductHandler struct {
	store *store.ProductStore
}

// NewProductHandler creates the handler for one product store.
func NewProductHandler(s *store.ProductStore) *ProductHandler {
	return &ProductHandler{store: s}
}

// Mux returns the fixed action table for the product store.
func (h *ProductHandler) Mux() server.Mux {
	return server.Mux{
		protocol.ActionAddItem:            h.AddItem,
		protocol.ActionUpdateQuantity:     h.UpdateQuantity,
		protocol.ActionChangePrice:        h.ChangePrice,
		protocol.ActionListSellerItems:    h.ListSellerItems,
		protocol.ActionGetItem:            h.GetItem,
		protocol.ActionGiveFeedback:       h.GiveFeedback,
		protocol.ActionSearchItemsForSale: h.SearchItemsForSale,
	}
}

// ItemResponse carries one catalog item.
type ItemResponse struct {
	Item domain.Item `json:"item"`
}

// ItemsResponse carries a list of catalog items.
type ItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func (h *ProductHandler) AddItem(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.AddItemData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	item, err := h.store.AddItem(p.SellerID, p.Category, p.Name, p.Keywords, p.Condition, *p.SalePrice, *p.Quantity)
	if err != nil {
		return nil, err
	}
	return map[string]any{"category": item.Category, "item_id": item.ID}, nil
}

func (h *ProductHandler) UpdateQuantity(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.UpdateQuantityData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	item, err := h.store.UpdateQuantity(p.SellerID, p.Category, p.ItemID, *p.Quantity)
	if err != nil {
		return nil, err
	}
	return ItemResponse{Item: item}, nil
}

func (h *ProductHandler) ChangePrice(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.ChangePriceData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	item, err := h.store.ChangePrice(p.SellerID, p.Category, p.ItemID, *p.NewPrice)
	if err != nil {
		return nil, err
	}
	return ItemResponse{Item: item}, nil
}

func (h *ProductHandler) ListSellerItems(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.ListSellerItemsData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	return ItemsResponse{Items: h.store.ListSellerItems(p.SellerID)}, nil
}

func (h *ProductHandler) GetItem(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.ItemRefData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	item, err := h.store.GetItem(p.Category, p.ItemID)
	if err != nil {
		return nil, err
	}
	return ItemResponse{Item: item}, nil
}

func (h *ProductHandler) GiveFeedback(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.FeedbackData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	fb, err := h.store.GiveFeedback(p.Category, p.ItemID, p.Vote)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// SearchItemsForSale recomputes the ranking on every call; an unknown
// category or zero matches is an empty result, never an error.
func (h *ProductHandler) SearchItemsForSale(ctx context.Context, data json.RawMessage) (any, error) {
	var p protocol.SearchData
	if err := protocol.DecodeData(data, &p); err != nil {
		return nil, err
	}
	return ItemsResponse{Items: h.store.Search(p.Category, p.Keywords)}, nil
}
