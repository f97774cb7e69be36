package payement

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

//
// 📥 POST /stripe/webhook
//
// Chemin de réconciliation : si une charge a abouti côté Stripe mais
// que le commit local s'est perdu (crash, timeout), l'évènement
// payment_intent.succeeded rejoue la finalisation. Idempotent, jamais
// de re-débit.
func (h *Handler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		c.Status(http.StatusOK)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "PaymentIntent invalide"})
		return
	}

	orderID := pi.Metadata["order_id"]
	email := pi.Metadata["email"]
	if orderID == "" {
		log.Println("⚠️ Métadonnées incomplètes, webhook ignoré")
		c.Status(http.StatusOK)
		return
	}

	log.Printf("📥 Webhook payment_intent.succeeded : %s (commande %s)", pi.ID, orderID)

	if err := h.checkout.Reconcile(c.Request.Context(), orderID, pi.ID, email); err != nil {
		// on répond 200 quand même : Stripe rejouerait indéfiniment un
		// webhook pour une commande purgée
		log.Printf("⚠️ Réconciliation commande %s en échec: %v", orderID, err)
	}

	c.Status(http.StatusOK)
}
