package models

import "time"

// Product est la projection catalogue consommée par le panier et la
// création de commande. Le catalogue complet (recherche, variantes...)
// vit ailleurs, ici on ne garde que ce dont le pipeline a besoin.
type Product struct {
	ID              string     `json:"product_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	DiscountedPrice float64    `json:"discounted_price"`
	Image           string     `json:"image"`
	Thumbnail       string     `json:"thumbnail"`
	Stock           int        `json:"stock"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// EffectivePrice retourne le prix unitaire retenu :
// discounted_price si > 0, sinon price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}
