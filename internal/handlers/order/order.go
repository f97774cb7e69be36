package order

import (
	"errors"
	"net/http"

	"tshirtshop_back_end/internal/checkout"
	"tshirtshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// Handler expose les endpoints /orders. Toutes les routes sont
// derrière l'auth JWT : customer_id vient du contexte.
type Handler struct {
	checkout *checkout.Service
}

func NewHandler(svc *checkout.Service) *Handler {
	return &Handler{checkout: svc}
}

//
// 🧾 POST /orders
//
// Convertit un panier en commande figée (statut pending). Le paiement
// est une requête séparée, voir /stripe/charge.
func (h *Handler) CreateOrder(c *gin.Context) {
	customerID := c.GetString("customer_id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		CartID     string `json:"cart_id" binding:"required"`
		ShippingID string `json:"shipping_id" binding:"required"`
		TaxID      string `json:"tax_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := h.checkout.CreateOrder(c.Request.Context(), input.CartID, input.ShippingID, input.TaxID, customerID)
	if errors.Is(err, checkout.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de livraison ou de taxe invalide"})
		return
	}
	if errors.Is(err, checkout.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impossible de créer une commande depuis un panier vide"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.OrderID,
	})
}

//
// 🔎 GET /orders/:order_id
//
func (h *Handler) GetOrderSummary(c *gin.Context) {
	customerID := c.GetString("customer_id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orderID := c.Param("order_id")

	summary, err := h.checkout.Summary(c.Request.Context(), orderID, customerID)
	if errors.Is(err, store.ErrNotFound) {
		// commande inconnue et commande d'un autre client : même réponse
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable: " + orderID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

//
// 📋 GET /orders/inCustomer
//
func (h *Handler) GetCustomerOrders(c *gin.Context) {
	customerID := c.GetString("customer_id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orders, err := h.checkout.ListOrders(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur listing commandes"})
		return
	}

	if len(orders) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "Ce client n'a encore passé aucune commande",
		})
		return
	}

	c.JSON(http.StatusOK, orders)
}
