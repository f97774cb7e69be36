package middleware

import (
	"net/http"
	"time"

	"tshirtshop_back_end/internal/cache"

	"github.com/gin-gonic/gin"
)

const (
	// Limites par endpoint
	ChargeMaxAttempts = 10
	ChargeCooldown    = 1 * time.Minute
)

// ChargeRateLimit limite les tentatives de paiement par client.
// Une carte refusée en boucle ne doit pas marteler la passerelle.
func ChargeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetString("customer_id")
		if customerID == "" {
			// l'auth s'en chargera
			c.Next()
			return
		}

		key := "charge_attempts:" + customerID
		count, err := cache.IncrementRateLimit(c.Request.Context(), key, ChargeCooldown)
		if err != nil {
			// Redis indisponible : on laisse passer plutôt que de bloquer les paiements
			c.Next()
			return
		}

		if count > ChargeMaxAttempts {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de tentatives de paiement. Réessayez dans une minute",
				"retry_after": int(ChargeCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
