package main

import (
	"context"
	"log"
	"os"

	"tshirtshop_back_end/internal/checkout"
	"tshirtshop_back_end/internal/config"
	"tshirtshop_back_end/internal/database"
	"tshirtshop_back_end/internal/handlers/cart"
	"tshirtshop_back_end/internal/handlers/order"
	"tshirtshop_back_end/internal/handlers/payement"
	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/payment"
	"tshirtshop_back_end/internal/routes"
	"tshirtshop_back_end/internal/store"
	"tshirtshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

func main() {
	config.Load()

	secret := os.Getenv("STRIPE_SECRET_KEY")
	stripe.Key = secret
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()

	// ✅ Pré-chauffer le cache Redis
	warmupRedisCache()

	productsSession, err := database.GetProductsSession()
	if err != nil {
		log.Fatal("❌ Session produits indisponible:", err)
	}
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		log.Fatal("❌ Session commandes indisponible:", err)
	}

	products := store.NewProductStore(productsSession)
	carts := store.NewCartStore(database.Redis, products)
	orders := store.NewOrderStore(ordersSession)
	lookups := store.NewLookupStore(ordersSession)
	gateway := payment.NewStripeGateway()

	svc := checkout.NewService(carts, orders, lookups, gateway, sendOrderConfirmation)

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Handlers{
		Cart:    cart.NewHandler(carts, database.Redis),
		Order:   order.NewHandler(svc),
		Payment: payement.NewHandler(svc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur TshirtShop lancé sur le port", port)
	r.Run(":" + port)
}

// sendOrderConfirmation envoie l'e-mail de confirmation après paiement.
// Appelé hors du chemin de la requête : un échec est loggé, jamais fatal.
func sendOrderConfirmation(o *models.Order, details []models.OrderDetail, email string) {
	pdf, err := utils.GenerateInvoicePDF(*o)
	if err != nil {
		log.Printf("⚠️ Facture PDF non générée pour %s: %v", o.OrderID, err)
		pdf = nil
	}

	html := utils.GenerateOrderConfirmationHTML(*o, details)
	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande TshirtShop", html, pdf); err != nil {
		log.Printf("⚠️ E-mail de confirmation non envoyé à %s: %v", email, err)
	}
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
