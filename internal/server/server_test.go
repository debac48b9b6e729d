package server_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emarket/internal/client"
	"emarket/internal/handler"
	"emarket/internal/protocol"
	"emarket/internal/server"
	"emarket/internal/store"
	"emarket/internal/testutil"
)

func startServer(t *testing.T, name string, mux server.Mux, opts ...server.Option) string {
	t.Helper()
	addr := testutil.FreeAddr(t)
	srv := server.New(name, addr, mux, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			t.Errorf("server %s: %v", name, err)
		}
	}()
	testutil.WaitForListener(t, addr)
	return addr
}

func startCustomerServer(t *testing.T, timeout time.Duration) string {
	t.Helper()
	s := store.NewCustomerStore(timeout)
	return startServer(t, "customerdb", handler.NewCustomerHandler(s).Mux())
}

func startProductServer(t *testing.T) string {
	t.Helper()
	s := store.NewProductStore()
	return startServer(t, "productdb", handler.NewProductHandler(s).Mux())
}

func dial(t *testing.T, addr, role string) *client.Client {
	t.Helper()
	c, err := client.Dial(addr, role)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func callOK(t *testing.T, c *client.Client, action string, data any) *client.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Call(ctx, action, data)
	require.NoError(t, err)
	require.True(t, resp.OK, "action %s failed with %s", action, resp.ErrorCode())
	return resp
}

func callErr(t *testing.T, c *client.Client, action string, data any) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Call(ctx, action, data)
	require.NoError(t, err)
	require.False(t, resp.OK, "action %s unexpectedly succeeded", action)
	assert.Equal(t, json.RawMessage(`{}`), resp.Data)
	return resp.ErrorCode()
}

func TestEndToEnd_MarketplaceFlow(t *testing.T) {
	customerAddr := startCustomerServer(t, 5*time.Minute)
	productAddr := startProductServer(t)

	seller := dial(t, productAddr, "seller")
	buyer := dial(t, customerAddr, "buyer")

	// Seller lists an item.
	resp := callOK(t, seller, "AddItem", map[string]any{
		"seller_id":     "seller-1",
		"category":      "books",
		"name":          "Go Programming",
		"keywords":      []string{"golang", "tutorial"},
		"sale_price":    20.0,
		"item_quantity": 3,
	})
	var listed struct {
		Category string `json:"category"`
		ItemID   int    `json:"item_id"`
	}
	require.NoError(t, resp.DecodeData(&listed))
	assert.Equal(t, "books", listed.Category)
	assert.Equal(t, 1, listed.ItemID)

	// Anyone on the product store can search.
	resp = callOK(t, seller, "search_items_for_sale", map[string]any{
		"category": "books",
		"keywords": []string{"golang"},
	})
	var found struct {
		Items []struct {
			ItemID int    `json:"item_id"`
			Name   string `json:"name"`
		} `json:"items"`
	}
	require.NoError(t, resp.DecodeData(&found))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Go Programming", found.Items[0].Name)

	// Buyer signs up and carts the item.
	callOK(t, buyer, "create_account", map[string]any{
		"role": "buyer", "user_id": "alice", "credential": "pw",
	})
	resp = callOK(t, buyer, "Login", map[string]any{
		"user_id": "alice", "credential": "pw",
	})
	var login struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, resp.DecodeData(&login))
	require.NotEmpty(t, login.SessionToken)

	resp = callOK(t, buyer, "add_to_cart", map[string]any{
		"session_token": login.SessionToken, "item_key": "books:1", "quantity": 2,
	})
	var cart struct {
		Cart map[string]int `json:"cart"`
	}
	require.NoError(t, resp.DecodeData(&cart))
	assert.Equal(t, map[string]int{"books:1": 2}, cart.Cart)

	// Snapshot, clear, restore.
	callOK(t, buyer, "save_cart", map[string]any{
		"session_token": login.SessionToken, "name": "later",
	})
	callOK(t, buyer, "clear_cart", map[string]any{"session_token": login.SessionToken})
	resp = callOK(t, buyer, "LoadCart", map[string]any{
		"session_token": login.SessionToken, "name": "later",
	})
	require.NoError(t, resp.DecodeData(&cart))
	assert.Equal(t, map[string]int{"books:1": 2}, cart.Cart)

	// Logout ends the session; the token stays dead.
	callOK(t, buyer, "logout", map[string]any{"session_token": login.SessionToken})
	code := callErr(t, buyer, "view_cart", map[string]any{"session_token": login.SessionToken})
	assert.Equal(t, protocol.CodeSessionInvalid, code)
}

func TestUnknownAction_KeepsConnectionOpen(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)
	c := dial(t, addr, "buyer")

	code := callErr(t, c, "frobnicate", map[string]any{})
	assert.Equal(t, protocol.CodeUnknownAction, code)

	// The customer store does not serve product actions either.
	code = callErr(t, c, "search_items_for_sale", map[string]any{"category": "books"})
	assert.Equal(t, protocol.CodeUnknownAction, code)

	// Same connection still works.
	callOK(t, c, "create_account", map[string]any{
		"role": "buyer", "user_id": "bob", "credential": "pw",
	})
}

func TestValidationErrors(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)
	c := dial(t, addr, "buyer")

	callOK(t, c, "create_account", map[string]any{
		"role": "buyer", "user_id": "carol", "credential": "pw",
	})
	resp := callOK(t, c, "login", map[string]any{"user_id": "carol", "credential": "pw"})
	var login struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, resp.DecodeData(&login))

	tests := []struct {
		name   string
		action string
		data   any
		want   string
	}{
		{"zero_quantity", "add_to_cart",
			map[string]any{"session_token": login.SessionToken, "item_key": "books:1", "quantity": 0},
			protocol.CodeValidationError},
		{"malformed_item_key", "add_to_cart",
			map[string]any{"session_token": login.SessionToken, "item_key": "books", "quantity": 1},
			protocol.CodeValidationError},
		{"missing_fields", "create_account",
			map[string]any{"role": "buyer"},
			protocol.CodeValidationError},
		{"bad_credentials", "login",
			map[string]any{"user_id": "carol", "credential": "wrong"},
			protocol.CodeAuthError},
		{"duplicate_account", "create_account",
			map[string]any{"role": "seller", "user_id": "carol", "credential": "pw"},
			protocol.CodeAuthError},
		{"unknown_saved_cart", "load_cart",
			map[string]any{"session_token": login.SessionToken, "name": "nope"},
			protocol.CodeNotFound},
		{"stale_token", "view_cart",
			map[string]any{"session_token": "not-a-token"},
			protocol.CodeSessionInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, callErr(t, c, tt.action, tt.data))
		})
	}
}

func TestSellerRating_OverTheWire(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)
	c := dial(t, addr, "seller")

	callOK(t, c, "create_account", map[string]any{
		"role": "seller", "user_id": "shop", "credential": "pw",
	})
	resp := callOK(t, c, "login", map[string]any{"user_id": "shop", "credential": "pw"})
	var login struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, resp.DecodeData(&login))

	var rating struct {
		SellerID string `json:"seller_id"`
		Feedback struct {
			ThumbsUp   int `json:"thumbs_up"`
			ThumbsDown int `json:"thumbs_down"`
		} `json:"seller_feedback"`
		ItemsSold int `json:"items_sold"`
	}

	resp = callOK(t, c, "get_seller_rating_by_id", map[string]any{"seller_id": "shop"})
	require.NoError(t, resp.DecodeData(&rating))
	assert.Equal(t, "shop", rating.SellerID)
	assert.Zero(t, rating.Feedback.ThumbsUp)
	assert.Zero(t, rating.ItemsSold)

	resp = callOK(t, c, "GetSellerRatingBySession", map[string]any{"session_token": login.SessionToken})
	require.NoError(t, resp.DecodeData(&rating))
	assert.Equal(t, "shop", rating.SellerID)

	code := callErr(t, c, "get_seller_rating_by_id", map[string]any{"seller_id": "nobody"})
	assert.Equal(t, protocol.CodeNotFound, code)
}

func TestMakePurchase_NotImplemented(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)
	c := dial(t, addr, "buyer")

	code := callErr(t, c, "make_purchase", map[string]any{"session_token": "any"})
	assert.Equal(t, protocol.CodeNotImplemented, code)
}

func TestSessionTimeout_AcrossConnections(t *testing.T) {
	addr := startCustomerServer(t, 150*time.Millisecond)

	first := dial(t, addr, "buyer")
	callOK(t, first, "create_account", map[string]any{
		"role": "buyer", "user_id": "dave", "credential": "pw",
	})
	resp := callOK(t, first, "login", map[string]any{"user_id": "dave", "credential": "pw"})
	var login struct {
		SessionToken string `json:"session_token"`
	}
	require.NoError(t, resp.DecodeData(&login))
	first.Close()

	time.Sleep(300 * time.Millisecond)

	// Sessions belong to the store, not the connection: a fresh connection
	// sees the same token, already expired by idleness.
	second := dial(t, addr, "buyer")
	code := callErr(t, second, "view_cart", map[string]any{"session_token": login.SessionToken})
	assert.Equal(t, protocol.CodeSessionInvalid, code)
}

func TestFramingError_ClosesConnection(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// Announce a frame far beyond the accepted maximum.
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 1<<30)
	_, err = conn.Write(prefix[:])
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameBytes)
	require.NoError(t, err, "server should answer with a framing error before closing")

	var resp client.Response
	require.NoError(t, json.Unmarshal(payload, &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, protocol.CodeFramingError, resp.ErrorCode())

	// Then the server hangs up.
	_, err = protocol.ReadFrame(conn, protocol.DefaultMaxFrameBytes)
	assert.ErrorIs(t, err, io.EOF)
}

func TestInvalidJSONFrame_ClosesConnection(t *testing.T) {
	addr := startCustomerServer(t, time.Minute)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.WriteFrame(conn, []byte("not json at all")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameBytes)
	require.NoError(t, err)

	var resp client.Response
	require.NoError(t, json.Unmarshal(payload, &resp))
	assert.Equal(t, protocol.CodeFramingError, resp.ErrorCode())
}

func TestHandlerPanic_BecomesInternalError(t *testing.T) {
	mux := server.Mux{
		protocol.Action("boom"): func(ctx context.Context, data json.RawMessage) (any, error) {
			panic("kaboom")
		},
	}
	addr := startServer(t, "panicdb", mux)
	c := dial(t, addr, "buyer")

	code := callErr(t, c, "boom", map[string]any{})
	assert.Equal(t, protocol.CodeInternalError, code)

	// The connection survives the panic.
	code = callErr(t, c, "boom", map[string]any{})
	assert.Equal(t, protocol.CodeInternalError, code)
}

func TestRateLimiter_DelaysButServes(t *testing.T) {
	rl := server.NewRateLimiter(1000, 100)
	t.Cleanup(rl.Stop)

	s := store.NewCustomerStore(time.Minute)
	addr := startServer(t, "customerdb", handler.NewCustomerHandler(s).Mux(),
		server.WithRateLimiter(rl))
	c := dial(t, addr, "buyer")

	for i := 0; i < 20; i++ {
		code := callErr(t, c, "view_cart", map[string]any{"session_token": "x"})
		assert.Equal(t, protocol.CodeSessionInvalid, code)
	}
}
