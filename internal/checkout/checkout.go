// Package checkout orchestre le pipeline panier → commande → paiement.
// Les deux phases (création de commande, capture du paiement) sont des
// opérations distinctes au niveau API : le client crée sa commande,
// puis la paie dans une requête ultérieure.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/payment"
	"tshirtshop_back_end/internal/pricing"
	"tshirtshop_back_end/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput : shipping_id ou tax_id irrésoluble (400)
	ErrInvalidInput = errors.New("type de livraison ou de taxe invalide")

	// ErrEmptyCart : pas de commande sans ligne — décision documentée
	// dans DESIGN.md, la source historique acceptait un total à zéro
	ErrEmptyCart = errors.New("le panier est vide")

	// ErrNotPayable : commande inconnue, d'un autre client ou déjà payée
	ErrNotPayable = store.ErrNotPayable

	// ErrGateway : échec ou timeout de la passerelle, aucun état local modifié
	ErrGateway = errors.New("échec de la passerelle de paiement")
)

// CartStore est la part du panier dont le checkout a besoin.
type CartStore interface {
	GetCart(ctx context.Context, cartID string) ([]models.PricedLine, error)
	EmptyCart(ctx context.Context, cartID string) error
}

// OrderStore persiste commandes et transitions de statut.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order, details []models.OrderDetail) error
	Claim(ctx context.Context, orderID, customerID string) (*models.Order, error)
	Release(ctx context.Context, orderID string) error
	Finalize(ctx context.Context, order *models.Order, chargeID string) (bool, error)
	Get(ctx context.Context, orderID string) (*models.Order, error)
	GetSummary(ctx context.Context, orderID, customerID string) (*models.OrderSummary, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.OrderSummary, error)
	Details(ctx context.Context, orderID string) ([]models.OrderDetail, error)
}

// LookupStore résout les références livraison/taxe.
type LookupStore interface {
	Shipping(ctx context.Context, shippingID string) (*models.Shipping, error)
	Tax(ctx context.Context, taxID string) (*models.Tax, error)
}

// Notifier envoie la confirmation de commande (e-mail + facture).
// Best-effort : un échec d'envoi ne remet jamais en cause le paiement.
type Notifier func(order *models.Order, details []models.OrderDetail, email string)

type Service struct {
	carts          CartStore
	orders         OrderStore
	lookups        LookupStore
	gateway        payment.Gateway
	notify         Notifier
	gatewayTimeout time.Duration
}

func NewService(carts CartStore, orders OrderStore, lookups LookupStore, gateway payment.Gateway, notify Notifier) *Service {
	return &Service{
		carts:          carts,
		orders:         orders,
		lookups:        lookups,
		gateway:        gateway,
		notify:         notify,
		gatewayTimeout: 30 * time.Second,
	}
}

// CreateOrder convertit un panier en commande figée : en-tête pending
// + un instantané immuable par ligne, écrits ensemble ou pas du tout.
// La validation shipping/tax précède toute mutation.
func (s *Service) CreateOrder(ctx context.Context, cartID, shippingID, taxID, customerID string) (*models.Order, error) {
	if _, err := s.lookups.Shipping(ctx, shippingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	tax, err := s.lookups.Tax(ctx, taxID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}

	lines, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	priced := make([]pricing.Line, 0, len(lines))
	details := make([]models.OrderDetail, 0, len(lines))
	orderID := uuid.NewString()

	for _, l := range lines {
		priced = append(priced, pricing.Line{
			UnitPrice: decimal.NewFromFloat(l.Price),
			Quantity:  int64(l.Quantity),
		})
		details = append(details, models.OrderDetail{
			OrderID:     orderID,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Attributes:  l.Attributes,
			UnitCost:    l.Price,
			Quantity:    l.Quantity,
		})
	}

	quote := pricing.Compute(priced, decimal.NewFromFloat(tax.Percentage))

	order := &models.Order{
		OrderID:       orderID,
		CustomerID:    customerID,
		TotalCents:    quote.TotalCents,
		TotalAmount:   quote.Total.InexactFloat64(),
		Status:        models.OrderStatusPending,
		AuthCode:      "TSHIRT",
		CartReference: cartID,
		ShippingID:    shippingID,
		TaxID:         taxID,
		Comments:      "Commande tshirtshop",
		CreatedOn:     time.Now().UTC(),
	}

	if err := s.orders.Insert(ctx, order, details); err != nil {
		return nil, err
	}

	log.Printf("🧾 Commande %s créée (%.2f€, %d lignes) pour %s",
		order.OrderID, order.TotalAmount, len(details), customerID)
	return order, nil
}

// Capture débite la commande via la passerelle, au plus une fois.
//
// La réclamation LWT pending → processing a lieu AVANT l'appel externe :
// sous N captures concurrentes, une seule passe la précondition, les
// autres voient ErrNotPayable. La clé d'idempotence dérivée de
// l'order_id rend l'appel passerelle rejouable après un timeout à
// l'issue inconnue sans risque de double débit.
func (s *Service) Capture(ctx context.Context, orderID, customerID, email, paymentToken string) (*payment.Charge, error) {
	order, err := s.orders.Claim(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	cust, err := s.gateway.CreateCustomer(gwCtx, email)
	if err != nil {
		s.release(orderID)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	charge, err := s.gateway.CreateCharge(gwCtx, payment.ChargeRequest{
		CustomerID:     cust.ID,
		PaymentToken:   paymentToken,
		AmountCents:    order.TotalCents,
		Currency:       "eur",
		Description:    order.Comments,
		IdempotencyKey: "charge-" + orderID,
		Metadata: map[string]string{
			"order_id": orderID,
			"email":    email,
		},
	})
	if err != nil {
		// Issue inconnue côté passerelle : on relâche la commande en
		// pending ; si la charge avait en réalité abouti, le webhook
		// de réconciliation finalisera sans re-débiter (idempotence)
		s.release(orderID)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.finalize(ctx, order, charge.ID, email)
	return charge, nil
}

// Reconcile ferme le trou entre une charge réussie côté passerelle et
// un état local resté pending/processing (crash, timeout client).
// Appelée par le webhook Stripe, idempotente : une commande déjà payée
// est un no-op, jamais un re-débit.
func (s *Service) Reconcile(ctx context.Context, orderID, chargeID, email string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusPaid {
		log.Printf("🔁 Commande %s déjà finalisée, webhook ignoré", orderID)
		return nil
	}

	s.finalize(ctx, order, chargeID, email)
	return nil
}

// finalize exécute le commit logique post-charge : vidage du panier
// d'origine puis transition vers paid. Chaque moitié est idempotente,
// la réconciliation peut donc rejouer l'ensemble sans danger.
func (s *Service) finalize(ctx context.Context, order *models.Order, chargeID, email string) {
	// la charge a déjà eu lieu : le commit local doit aboutir même si
	// la requête d'origine vient d'être annulée ou a expiré
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.carts.EmptyCart(ctx, order.CartReference); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ Vidage du panier %s impossible: %v", order.CartReference, err)
	}

	applied, err := s.orders.Finalize(ctx, order, chargeID)
	if err != nil {
		log.Printf("⚠️ Finalisation de la commande %s en échec: %v", order.OrderID, err)
		return
	}
	if !applied {
		return
	}

	log.Printf("✅ Commande %s payée (charge %s)", order.OrderID, chargeID)

	if s.notify != nil {
		details, err := s.orders.Details(ctx, order.OrderID)
		if err != nil {
			log.Printf("⚠️ Lignes de la commande %s illisibles pour la confirmation: %v", order.OrderID, err)
			return
		}
		paid := *order
		paid.Status = models.OrderStatusPaid
		paid.ChargeID = chargeID
		go s.notify(&paid, details, email)
	}
}

func (s *Service) release(orderID string) {
	// contexte frais : la libération doit aboutir même si la requête
	// d'origine vient d'expirer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.orders.Release(ctx, orderID); err != nil {
		log.Printf("⚠️ Libération de la commande %s en échec: %v", orderID, err)
	}
}

// Summary délègue la lecture du résumé d'une commande.
func (s *Service) Summary(ctx context.Context, orderID, customerID string) (*models.OrderSummary, error) {
	return s.orders.GetSummary(ctx, orderID, customerID)
}

// ListOrders délègue le listing des commandes d'un client.
func (s *Service) ListOrders(ctx context.Context, customerID string) ([]models.OrderSummary, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}
