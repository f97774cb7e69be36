package models

// CartItem est une ligne de panier stockée dans Redis.
// Unique par (cart_id, product_id).
type CartItem struct {
	ItemID     string `json:"item_id"`
	CartID     string `json:"cart_id"`
	ProductID  string `json:"product_id"`
	Attributes string `json:"attributes"` // ex: "LG, Rouge" — blob opaque choisi par le client
	Quantity   int    `json:"quantity"`
}

// PricedLine est une ligne de panier enrichie avec les données produit
// actuelles. Jamais persistée, calculée à la lecture.
type PricedLine struct {
	ItemID          string  `json:"item_id"`
	CartID          string  `json:"cart_id"`
	ProductID       string  `json:"product_id"`
	Name            string  `json:"name"`
	Attributes      string  `json:"attributes"`
	Price           float64 `json:"price"` // prix unitaire retenu (remise appliquée si > 0)
	DiscountedPrice float64 `json:"discounted_price"`
	Quantity        int     `json:"quantity"`
	Subtotal        float64 `json:"subtotal"`
	Image           string  `json:"image"`
}
