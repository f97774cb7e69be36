package routes

import (
	"os"
	"strings"
	"time"

	"tshirtshop_back_end/internal/handlers/cart"
	"tshirtshop_back_end/internal/handlers/order"
	"tshirtshop_back_end/internal/handlers/payement"
	"tshirtshop_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers regroupe les handlers construits dans main, injectés ici
// pour garder le câblage des routes en un seul endroit.
type Handlers struct {
	Cart    *cart.Handler
	Order   *order.Handler
	Payment *payement.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.Use(cors.New(corsConfig()))

	// Panier : pas d'auth, le cart_id est un jeton opaque côté client
	sc := r.Group("/shoppingcart")
	{
		sc.GET("/generateUniqueId", h.Cart.GenerateUniqueID)
		sc.POST("/add", h.Cart.AddItem)
		sc.PUT("/update/:item_id", h.Cart.UpdateItem)
		sc.GET("/ws/:cart_id", h.Cart.CartWebSocket)
		sc.GET("/:cart_id", h.Cart.GetCart)
		sc.DELETE("/empty/:cart_id", h.Cart.EmptyCart)
		sc.DELETE("/removeProduct/:item_id", h.Cart.RemoveItem)
	}

	// Commandes : auth JWT obligatoire
	orders := r.Group("/orders", middleware.AuthRequired())
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("/inCustomer", h.Order.GetCustomerOrders)
		orders.GET("/:order_id", h.Order.GetOrderSummary)
	}

	// Paiement
	stripeGroup := r.Group("/stripe")
	{
		stripeGroup.POST("/charge", middleware.AuthRequired(), middleware.ChargeRateLimit(), h.Payment.Charge)
		// webhook : signé par Stripe, pas de JWT
		stripeGroup.POST("/webhook", h.Payment.StripeWebhook)
	}
}

func corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
		return cfg
	}
	cfg.AllowOrigins = strings.Split(origins, ",")
	return cfg
}
