package models

import "time"

// Statuts de commande. Transitions autorisées :
// pending → processing → paid (jamais en arrière, paid au plus une fois).
// processing → pending uniquement quand la passerelle de paiement a refusé.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
)

// Order est l'en-tête de commande. TotalCents est la source de vérité
// du montant (unités mineures), TotalAmount n'est que l'affichage.
type Order struct {
	OrderID       string    `json:"order_id"`
	CustomerID    string    `json:"customer_id"`
	TotalAmount   float64   `json:"total_amount"`
	TotalCents    int64     `json:"-"`
	Status        string    `json:"status"`
	AuthCode      string    `json:"auth_code"`
	CartReference string    `json:"cart_reference"` // cart_id d'origine, conservé pour l'audit
	ChargeID      string    `json:"charge_id,omitempty"`
	ShippingID    string    `json:"shipping_id"`
	TaxID         string    `json:"tax_id"`
	Comments      string    `json:"comments"`
	CreatedOn     time.Time `json:"created_on"`
}

// OrderDetail est l'instantané immuable d'une ligne de panier au moment
// de la création de la commande. Les changements de prix catalogue
// ultérieurs ne touchent jamais une commande placée.
type OrderDetail struct {
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Attributes  string  `json:"attributes"`
	UnitCost    float64 `json:"unit_cost"`
	Quantity    int     `json:"quantity"`
}

// OrderSummary est la vue renvoyée par GET /orders/:order_id
// et la liste GET /orders/inCustomer.
type OrderSummary struct {
	OrderID     string    `json:"order_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedOn   time.Time `json:"created_on"`
}

func (o *Order) AmountFromCents() float64 {
	return float64(o.TotalCents) / 100
}
