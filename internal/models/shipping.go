package models

// Shipping est un type de livraison référencé par une commande.
type Shipping struct {
	ShippingID   string  `json:"shipping_id"`
	ShippingType string  `json:"shipping_type"`
	Cost         float64 `json:"shipping_cost"`
	Region       string  `json:"shipping_region"`
}

// Tax est un type de taxe appliqué au total d'une commande.
type Tax struct {
	TaxID      string  `json:"tax_id"`
	TaxType    string  `json:"tax_type"`
	Percentage float64 `json:"tax_percentage"`
}
