package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCarts simule le store panier en mémoire, sans Redis.
type fakeCarts struct {
	items map[string]*models.CartItem // item_id → item
	lines map[string][]models.PricedLine
	err   error
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{
		items: map[string]*models.CartItem{},
		lines: map[string][]models.PricedLine{},
	}
}

func (f *fakeCarts) AddItem(_ context.Context, cartID, productID, attributes string, quantity int) (*models.CartItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if quantity == 0 {
		quantity = 1
	}
	item := &models.CartItem{
		ItemID:     "item-" + productID,
		CartID:     cartID,
		ProductID:  productID,
		Attributes: attributes,
		Quantity:   quantity,
	}
	f.items[item.ItemID] = item
	return item, nil
}

func (f *fakeCarts) UpdateItem(_ context.Context, itemID string, quantity int) (*models.CartItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	item.Quantity = quantity
	return item, nil
}

func (f *fakeCarts) GetCart(_ context.Context, cartID string) ([]models.PricedLine, error) {
	lines, ok := f.lines[cartID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return lines, nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, itemID string) error {
	if _, ok := f.items[itemID]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeCarts) EmptyCart(_ context.Context, cartID string) error {
	if _, ok := f.lines[cartID]; !ok {
		return store.ErrNotFound
	}
	delete(f.lines, cartID)
	return nil
}

func setupRouter(carts Carts) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(carts, nil)

	r := gin.New()
	r.GET("/shoppingcart/generateUniqueId", h.GenerateUniqueID)
	r.POST("/shoppingcart/add", h.AddItem)
	r.PUT("/shoppingcart/update/:item_id", h.UpdateItem)
	r.GET("/shoppingcart/:cart_id", h.GetCart)
	r.DELETE("/shoppingcart/empty/:cart_id", h.EmptyCart)
	r.DELETE("/shoppingcart/removeProduct/:item_id", h.RemoveItem)
	return r
}

func TestGenerateUniqueID(t *testing.T) {
	r := setupRouter(newFakeCarts())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shoppingcart/generateUniqueId", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["cart_id"])

	// deux appels → deux jetons distincts
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/shoppingcart/generateUniqueId", nil))
	var body2 map[string]string
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &body2))
	assert.NotEqual(t, body["cart_id"], body2["cart_id"])
}

func TestAddItemQuantiteParDefaut(t *testing.T) {
	carts := newFakeCarts()
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shoppingcart/add",
		strings.NewReader(`{"cart_id":"c1","product_id":"p1","attributes":"L, Rouge"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var item models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "L, Rouge", item.Attributes)
}

func TestAddItemQuantiteInvalide(t *testing.T) {
	r := setupRouter(newFakeCarts())

	for _, payload := range []string{
		`{"cart_id":"c1","product_id":"p1","quantity":0}`,
		`{"cart_id":"c1","product_id":"p1","quantity":-3}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/shoppingcart/add", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestAddItemProduitInconnu(t *testing.T) {
	carts := newFakeCarts()
	carts.err = store.ErrNotFound
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shoppingcart/add",
		strings.NewReader(`{"cart_id":"c1","product_id":"inconnu"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateItem(t *testing.T) {
	carts := newFakeCarts()
	carts.items["item-p1"] = &models.CartItem{ItemID: "item-p1", CartID: "c1", ProductID: "p1", Quantity: 1}
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/shoppingcart/update/item-p1",
		strings.NewReader(`{"quantity":5}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, carts.items["item-p1"].Quantity)
}

func TestUpdateItemIntrouvable(t *testing.T) {
	r := setupRouter(newFakeCarts())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/shoppingcart/update/fantome",
		strings.NewReader(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateItemQuantiteNulle(t *testing.T) {
	carts := newFakeCarts()
	carts.items["item-p1"] = &models.CartItem{ItemID: "item-p1", Quantity: 1}
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/shoppingcart/update/item-p1",
		strings.NewReader(`{"quantity":0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// la quantité 0 ne passe pas le binding : pas de suppression implicite
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, carts.items["item-p1"].Quantity)
}

func TestGetCartInconnu(t *testing.T) {
	r := setupRouter(newFakeCarts())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shoppingcart/fantome", nil))

	// panier vide et panier inconnu : même réponse
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCart(t *testing.T) {
	carts := newFakeCarts()
	carts.lines["c1"] = []models.PricedLine{
		{ItemID: "item-p1", ProductID: "p1", Name: "T-shirt col V", Quantity: 2, Price: 12.50, Subtotal: 25.00},
	}
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shoppingcart/c1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var lines []models.PricedLine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, 25.00, lines[0].Subtotal)
}

func TestEmptyCart(t *testing.T) {
	carts := newFakeCarts()
	carts.lines["c1"] = []models.PricedLine{{ItemID: "item-p1"}}
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/shoppingcart/empty/c1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NotContains(t, carts.lines, "c1")
}

func TestRemoveItem(t *testing.T) {
	carts := newFakeCarts()
	carts.items["item-p1"] = &models.CartItem{ItemID: "item-p1"}
	r := setupRouter(carts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/shoppingcart/removeProduct/item-p1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, carts.items, "item-p1")

	// seconde suppression : l'item n'existe plus
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodDelete, "/shoppingcart/removeProduct/item-p1", nil))
	assert.Equal(t, http.StatusNotFound, w2.Code)
}
