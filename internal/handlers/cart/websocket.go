package cart

import (
	"errors"
	"log"
	"net/http"
	"time"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

//
// 🔄 GET /shoppingcart/ws/:cart_id
//
// Synchronisation temps réel du panier : chaque mutation publie un
// évènement Redis, le websocket renvoie alors l'état courant.
func (h *Handler) CartWebSocket(c *gin.Context) {
	cartID := c.Param("cart_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// S'abonner au canal Redis de ce panier
	pubsub := h.rdb.Subscribe(ctx, store.SyncChannel(cartID))
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Synchronisation panier activée",
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != "updated" && msg.Payload != "cleared" {
				continue
			}

			lines, err := h.carts.GetCart(ctx, cartID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				continue
			}
			if lines == nil {
				lines = []models.PricedLine{}
			}

			total := 0.0
			for _, l := range lines {
				total += l.Subtotal
			}

			if err := conn.WriteJSON(map[string]interface{}{
				"type":  "cart_updated",
				"items": lines,
				"total": total,
				"count": len(lines),
			}); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
