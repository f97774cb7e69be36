package payement

import (
	"errors"
	"net/http"

	"tshirtshop_back_end/internal/checkout"

	"github.com/gin-gonic/gin"
)

// Handler expose la capture de paiement et le webhook Stripe.
type Handler struct {
	checkout *checkout.Service
}

func NewHandler(svc *checkout.Service) *Handler {
	return &Handler{checkout: svc}
}

//
// 💳 POST /stripe/charge
//
// Capture le paiement d'une commande pending. Au plus une fois par
// commande : les captures concurrentes perdantes voient un 404.
func (h *Handler) Charge(c *gin.Context) {
	customerID := c.GetString("customer_id")
	email := c.GetString("email")
	if customerID == "" || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié ou e-mail manquant"})
		return
	}

	var input struct {
		OrderID     string `json:"order_id" binding:"required"`
		StripeToken string `json:"stripe_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	charge, err := h.checkout.Capture(c.Request.Context(), input.OrderID, customerID, email, input.StripeToken)
	if errors.Is(err, checkout.ErrNotPayable) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable ou non payable: " + input.OrderID})
		return
	}
	if errors.Is(err, checkout.ErrGateway) {
		// aucun état local n'a changé, le client peut retenter
		c.JSON(http.StatusBadGateway, gin.H{"error": "Échec du paiement", "details": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement paiement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"charge":  charge,
		"message": "Commande payée avec succès",
	})
}
