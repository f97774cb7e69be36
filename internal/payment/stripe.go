package payment

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// StripeGateway implémente Gateway sur l'API Stripe. La clé globale
// est posée une fois au démarrage (stripe.Key), l'instance est ensuite
// partagée par toutes les requêtes.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email string) (*Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return nil, fmt.Errorf("création client Stripe: %w", err)
	}

	return &Customer{ID: cust.ID, Email: email}, nil
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentToken),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx
	// La clé d'idempotence rend la capture rejouable sans double débit
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddExpand("latest_charge")

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		return nil, fmt.Errorf("création charge Stripe: %w", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("charge Stripe non aboutie: statut %s", intent.Status)
	}

	charge := &Charge{
		ID:          intent.ID,
		AmountCents: intent.Amount,
		Currency:    string(intent.Currency),
		Status:      string(intent.Status),
	}
	if intent.LatestCharge != nil {
		charge.ReceiptURL = intent.LatestCharge.ReceiptURL
	}

	log.Printf("💳 Charge Stripe créée : %s (%d %s)", intent.ID, intent.Amount, intent.Currency)
	return charge, nil
}
