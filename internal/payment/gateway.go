// Package payment isole la passerelle de paiement derrière une
// interface étroite : deux capacités (créer un client, créer une
// charge), injectée au démarrage, remplaçable en test.
package payment

import "context"

// Customer est un client côté passerelle.
type Customer struct {
	ID    string
	Email string
}

// ChargeRequest décrit une capture. AmountCents est en unités
// mineures. IdempotencyKey garantit qu'une relance après un timeout à
// l'issue inconnue ne peut pas débiter deux fois.
type ChargeRequest struct {
	CustomerID     string
	PaymentToken   string
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	// Metadata est renvoyée telle quelle par les webhooks de la
	// passerelle — c'est le fil qui relie une charge à sa commande
	Metadata map[string]string
}

// Charge est la preuve durable qu'une capture a eu lieu : son ID est
// le seul identifiant stable côté passerelle.
type Charge struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
}

// Gateway est la capacité passerelle consommée par le checkout.
type Gateway interface {
	CreateCustomer(ctx context.Context, email string) (*Customer, error)
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
}
