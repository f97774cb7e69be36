package store

import (
	"context"
	"fmt"
	"time"

	"tshirtshop_back_end/internal/database"
	"tshirtshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// OrderStore persiste les commandes dans ScyllaDB.
//
// L'en-tête vit dans les colonnes statiques de la partition
// orders_by_id et les lignes dans ses rangées de clustering : l'insert
// de création est un batch mono-partition, appliqué atomiquement — une
// commande partielle (en-tête sans lignes) n'est jamais observable.
//
// Les transitions de statut passent par des LWT (IF status = ...) :
// deux captures concurrentes ne peuvent pas réclamer la même commande.
//
// orders_by_customer est une vue dénormalisée pour le listing client,
// même idée que users_by_email côté utilisateurs.
type OrderStore struct {
	session *gocql.Session
}

func NewOrderStore(session *gocql.Session) *OrderStore {
	return &OrderStore{session: session}
}

// Insert écrit l'en-tête et toutes les lignes en un seul batch.
func (s *OrderStore) Insert(ctx context.Context, order *models.Order, details []models.OrderDetail) error {
	oid, err := uuid.Parse(order.OrderID)
	if err != nil {
		return fmt.Errorf("order_id invalide: %w", err)
	}
	sid, err := uuid.Parse(order.ShippingID)
	if err != nil {
		return fmt.Errorf("shipping_id invalide: %w", err)
	}
	tid, err := uuid.Parse(order.TaxID)
	if err != nil {
		return fmt.Errorf("tax_id invalide: %w", err)
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	// En-tête (colonnes statiques de la partition)
	batch.Query(`INSERT INTO orders_by_id (order_id, customer_id, total_cents, status, auth_code, cart_reference, charge_id, shipping_id, tax_id, comments, created_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.UUID(oid), order.CustomerID, order.TotalCents, order.Status, order.AuthCode,
		order.CartReference, order.ChargeID, gocql.UUID(sid), gocql.UUID(tid),
		order.Comments, order.CreatedOn)

	// Lignes (instantanés immuables, une rangée de clustering par ligne)
	for _, d := range details {
		pid, err := uuid.Parse(d.ProductID)
		if err != nil {
			return fmt.Errorf("product_id invalide: %w", err)
		}
		batch.Query(`INSERT INTO orders_by_id (order_id, product_id, product_name, attributes, unit_cost, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			gocql.UUID(oid), gocql.UUID(pid), d.ProductName, d.Attributes, d.UnitCost, d.Quantity)
	}

	// Vue de listing client
	batch.Query(`INSERT INTO orders_by_customer (customer_id, created_on, order_id, total_cents, status)
		VALUES (?, ?, ?, ?, ?)`,
		order.CustomerID, order.CreatedOn, gocql.UUID(oid), order.TotalCents, order.Status)

	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("insertion commande: %w", err)
	}
	return nil
}

// Claim fait passer atomiquement la commande de pending à processing
// pour ce client. ErrNotPayable couvre indistinctement : id inconnu,
// mauvais propriétaire, commande déjà réclamée ou déjà payée.
func (s *OrderStore) Claim(ctx context.Context, orderID, customerID string) (*models.Order, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotPayable
	}

	prev := make(map[string]interface{})
	applied, err := s.session.Query(
		`UPDATE orders_by_id SET status = ? WHERE order_id = ? IF status = ? AND customer_id = ?`,
		models.OrderStatusProcessing, gocql.UUID(oid), models.OrderStatusPending, customerID,
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return nil, fmt.Errorf("réclamation commande: %w", err)
	}
	if !applied {
		return nil, ErrNotPayable
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusProcessing
	return order, nil
}

// Release relâche une commande réclamée dont le paiement a échoué :
// processing → pending, aucune autre écriture locale.
func (s *OrderStore) Release(ctx context.Context, orderID string) error {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return ErrNotFound
	}

	prev := make(map[string]interface{})
	_, err = s.session.Query(
		`UPDATE orders_by_id SET status = ? WHERE order_id = ? IF status = ?`,
		models.OrderStatusPending, gocql.UUID(oid), models.OrderStatusProcessing,
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return fmt.Errorf("libération commande: %w", err)
	}
	return nil
}

// Finalize enregistre le paiement : statut paid + charge_id. Accepte
// une commande en processing (capture normale) ou encore en pending
// (réconciliation webhook après un crash). Retourne false si la
// commande était déjà payée — la finalisation est idempotente.
func (s *OrderStore) Finalize(ctx context.Context, order *models.Order, chargeID string) (bool, error) {
	oid, err := uuid.Parse(order.OrderID)
	if err != nil {
		return false, ErrNotFound
	}

	applied := false
	for _, from := range []string{models.OrderStatusProcessing, models.OrderStatusPending} {
		prev := make(map[string]interface{})
		ok, err := s.session.Query(
			`UPDATE orders_by_id SET status = ?, charge_id = ? WHERE order_id = ? IF status = ?`,
			models.OrderStatusPaid, chargeID, gocql.UUID(oid), from,
		).WithContext(ctx).MapScanCAS(prev)
		if err != nil {
			return false, fmt.Errorf("finalisation commande: %w", err)
		}
		if ok {
			applied = true
			break
		}
	}
	if !applied {
		return false, nil
	}

	// Vue de listing : non transactionnelle, purement informative
	err = s.session.Query(
		`UPDATE orders_by_customer SET status = ? WHERE customer_id = ? AND created_on = ? AND order_id = ?`,
		models.OrderStatusPaid, order.CustomerID, order.CreatedOn, gocql.UUID(oid),
	).WithContext(ctx).Exec()
	if err != nil {
		return true, fmt.Errorf("mise à jour vue listing: %w", err)
	}

	return true, nil
}

// Get charge l'en-tête d'une commande, sans contrôle de propriétaire.
func (s *OrderStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		customerID, status, authCode    string
		cartReference, chargeID         string
		comments                        string
		totalCents                      int64
		shippingID, taxID               gocql.UUID
		createdOn                       time.Time
	)

	err = s.session.Query(database.SelectOrderHeader, gocql.UUID(oid)).WithContext(ctx).Scan(
		&customerID, &totalCents, &status, &authCode, &cartReference, &chargeID,
		&shippingID, &taxID, &comments, &createdOn)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderID:       orderID,
		CustomerID:    customerID,
		TotalCents:    totalCents,
		Status:        status,
		AuthCode:      authCode,
		CartReference: cartReference,
		ChargeID:      chargeID,
		ShippingID:    shippingID.String(),
		TaxID:         taxID.String(),
		Comments:      comments,
		CreatedOn:     createdOn,
	}
	order.TotalAmount = order.AmountFromCents()
	return order, nil
}

// GetSummary retourne le résumé d'une commande pour son propriétaire.
// ErrNotFound si la commande n'existe pas OU n'appartient pas au client.
func (s *OrderStore) GetSummary(ctx context.Context, orderID, customerID string) (*models.OrderSummary, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotFound
	}

	return &models.OrderSummary{
		OrderID:     order.OrderID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedOn:   order.CreatedOn,
	}, nil
}

// ListByCustomer retourne les commandes d'un client, plus récentes d'abord.
func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]models.OrderSummary, error) {
	iter := s.session.Query(
		`SELECT order_id, created_on, total_cents, status FROM orders_by_customer WHERE customer_id = ?`,
		customerID,
	).WithContext(ctx).Iter()

	var (
		summaries  []models.OrderSummary
		oid        gocql.UUID
		createdOn  time.Time
		totalCents int64
		status     string
	)
	for iter.Scan(&oid, &createdOn, &totalCents, &status) {
		summaries = append(summaries, models.OrderSummary{
			OrderID:     oid.String(),
			TotalAmount: float64(totalCents) / 100,
			Status:      status,
			CreatedOn:   createdOn,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("listing commandes: %w", err)
	}
	return summaries, nil
}

// Details retourne les instantanés de lignes d'une commande.
func (s *OrderStore) Details(ctx context.Context, orderID string) ([]models.OrderDetail, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	iter := s.session.Query(database.SelectOrderLines, gocql.UUID(oid)).WithContext(ctx).Iter()

	var (
		details     []models.OrderDetail
		pid         gocql.UUID
		name, attrs string
		unitCost    float64
		quantity    int
	)
	for iter.Scan(&pid, &name, &attrs, &unitCost, &quantity) {
		// la rangée statique seule (commande hypothétiquement sans
		// ligne) sort avec product_id nul, on l'ignore
		if pid == (gocql.UUID{}) {
			continue
		}
		details = append(details, models.OrderDetail{
			OrderID:     orderID,
			ProductID:   pid.String(),
			ProductName: name,
			Attributes:  attrs,
			UnitCost:    unitCost,
			Quantity:    quantity,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture lignes commande: %w", err)
	}
	return details, nil
}
