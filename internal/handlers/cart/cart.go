package cart

import (
	"context"
	"errors"
	"net/http"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Carts est la capacité panier consommée par les handlers,
// remplaçable en test.
type Carts interface {
	AddItem(ctx context.Context, cartID, productID, attributes string, quantity int) (*models.CartItem, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*models.CartItem, error)
	GetCart(ctx context.Context, cartID string) ([]models.PricedLine, error)
	RemoveItem(ctx context.Context, itemID string) error
	EmptyCart(ctx context.Context, cartID string) error
}

// Handler expose les endpoints /shoppingcart.
type Handler struct {
	carts Carts
	rdb   *redis.Client
}

func NewHandler(carts Carts, rdb *redis.Client) *Handler {
	return &Handler{carts: carts, rdb: rdb}
}

//
// 🆔 GET /shoppingcart/generateUniqueId
//
// Le cart_id est un jeton opaque détenu par le client et renvoyé sur
// chaque opération panier — pas de session implicite côté serveur.
func (h *Handler) GenerateUniqueID(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cart_id": uuid.NewString(),
	})
}

//
// 🟢 POST /shoppingcart/add
//
func (h *Handler) AddItem(c *gin.Context) {
	var input struct {
		CartID     string `json:"cart_id" binding:"required"`
		ProductID  string `json:"product_id" binding:"required"`
		Attributes string `json:"attributes"`
		Quantity   *int   `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	quantity := 0 // 0 = non fournie : défaut 1 à la création, inchangée en fusion
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
			return
		}
		quantity = *input.Quantity
	}

	item, err := h.carts.AddItem(c.Request.Context(), input.CartID, input.ProductID, input.Attributes, quantity)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable: " + input.ProductID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout au panier"})
		return
	}

	c.JSON(http.StatusOK, item)
}

//
// ✏️ PUT /shoppingcart/update/:item_id
//
func (h *Handler) UpdateItem(c *gin.Context) {
	itemID := c.Param("item_id")

	var input struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	item, err := h.carts.UpdateItem(c.Request.Context(), itemID, input.Quantity)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item introuvable dans le panier: " + itemID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du panier"})
		return
	}

	c.JSON(http.StatusOK, item)
}

//
// 🛒 GET /shoppingcart/:cart_id
//
func (h *Handler) GetCart(c *gin.Context) {
	cartID := c.Param("cart_id")

	lines, err := h.carts.GetCart(c.Request.Context(), cartID)
	if errors.Is(err, store.ErrNotFound) {
		// panier vide et panier inconnu sont confondus : les cart_id
		// sont des jetons opaques, on ne trace pas leur existence
		c.JSON(http.StatusNotFound, gin.H{"error": "Le panier demandé est introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	c.JSON(http.StatusOK, lines)
}

//
// 🧹 DELETE /shoppingcart/empty/:cart_id
//
func (h *Handler) EmptyCart(c *gin.Context) {
	cartID := c.Param("cart_id")

	err := h.carts.EmptyCart(c.Request.Context(), cartID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Le panier demandé est introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vidage panier"})
		return
	}

	c.JSON(http.StatusOK, []models.PricedLine{})
}

//
// ❌ DELETE /shoppingcart/removeProduct/:item_id
//
func (h *Handler) RemoveItem(c *gin.Context) {
	itemID := c.Param("item_id")

	err := h.carts.RemoveItem(c.Request.Context(), itemID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "L'item demandé est introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item supprimé du panier",
	})
}
