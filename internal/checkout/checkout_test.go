package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/payment"
	"tshirtshop_back_end/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[string][]models.PricedLine
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string][]models.PricedLine)}
}

func (f *fakeCartStore) GetCart(_ context.Context, cartID string) ([]models.PricedLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines, ok := f.carts[cartID]
	if !ok || len(lines) == 0 {
		return nil, store.ErrNotFound
	}
	return lines, nil
}

func (f *fakeCartStore) EmptyCart(ctx context.Context, cartID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[cartID]; !ok {
		return store.ErrNotFound
	}
	delete(f.carts, cartID)
	return nil
}

type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	details   map[string][]models.OrderDetail
	insertErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:  make(map[string]*models.Order),
		details: make(map[string][]models.OrderDetail),
	}
}

func (f *fakeOrderStore) Insert(_ context.Context, order *models.Order, details []models.OrderDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		// échec du batch : ni en-tête ni lignes ne doivent exister
		return f.insertErr
	}
	cp := *order
	f.orders[order.OrderID] = &cp
	f.details[order.OrderID] = details
	return nil
}

// Claim reproduit la sémantique LWT : la précondition et la transition
// sont évaluées sous le même verrou.
func (f *fakeOrderStore) Claim(_ context.Context, orderID, customerID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.CustomerID != customerID || order.Status != models.OrderStatusPending {
		return nil, store.ErrNotPayable
	}
	order.Status = models.OrderStatusProcessing
	cp := *order
	return &cp, nil
}

func (f *fakeOrderStore) Release(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok && order.Status == models.OrderStatusProcessing {
		order.Status = models.OrderStatusPending
	}
	return nil
}

func (f *fakeOrderStore) Finalize(ctx context.Context, order *models.Order, chargeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.OrderID]
	if !ok || stored.Status == models.OrderStatusPaid {
		return false, nil
	}
	stored.Status = models.OrderStatusPaid
	stored.ChargeID = chargeID
	return true, nil
}

func (f *fakeOrderStore) Get(_ context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderStore) GetSummary(_ context.Context, orderID, customerID string) (*models.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.CustomerID != customerID {
		return nil, store.ErrNotFound
	}
	return &models.OrderSummary{
		OrderID:     order.OrderID,
		TotalAmount: float64(order.TotalCents) / 100,
		Status:      order.Status,
		CreatedOn:   order.CreatedOn,
	}, nil
}

func (f *fakeOrderStore) ListByCustomer(_ context.Context, customerID string) ([]models.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderSummary
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, models.OrderSummary{OrderID: o.OrderID, Status: o.Status})
		}
	}
	return out, nil
}

func (f *fakeOrderStore) Details(_ context.Context, orderID string) ([]models.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[orderID], nil
}

type fakeLookupStore struct {
	shippings map[string]*models.Shipping
	taxes     map[string]*models.Tax
}

func (f *fakeLookupStore) Shipping(_ context.Context, id string) (*models.Shipping, error) {
	if s, ok := f.shippings[id]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookupStore) Tax(_ context.Context, id string) (*models.Tax, error) {
	if t, ok := f.taxes[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

type fakeGateway struct {
	mu          sync.Mutex
	chargeCalls int
	lastRequest payment.ChargeRequest
	chargeErr   error
	onCharge    func() // exécuté pendant l'appel passerelle
}

func (f *fakeGateway) CreateCustomer(_ context.Context, email string) (*payment.Customer, error) {
	return &payment.Customer{ID: "cus_test", Email: email}, nil
}

func (f *fakeGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	f.chargeCalls++
	f.lastRequest = req
	if f.onCharge != nil {
		f.onCharge()
	}
	return &payment.Charge{ID: "pi_test", AmountCents: req.AmountCents, Currency: req.Currency, Status: "succeeded"}, nil
}

// --- Montage ---

const (
	cartID     = "panier-1"
	customerID = "client-1"
	shippingID = "ship-1"
	taxID      = "tax-1"
)

func newTestService(t *testing.T) (*Service, *fakeCartStore, *fakeOrderStore, *fakeGateway) {
	t.Helper()
	carts := newFakeCartStore()
	orders := newFakeOrderStore()
	gateway := &fakeGateway{}
	lookups := &fakeLookupStore{
		shippings: map[string]*models.Shipping{shippingID: {ShippingID: shippingID, ShippingType: "Standard"}},
		taxes:     map[string]*models.Tax{taxID: {TaxID: taxID, TaxType: "TVA", Percentage: 10}},
	}
	return NewService(carts, orders, lookups, gateway, nil), carts, orders, gateway
}

func seedCart(carts *fakeCartStore) {
	carts.carts[cartID] = []models.PricedLine{
		{ItemID: "item-1", CartID: cartID, ProductID: "prod-1", Name: "T-shirt Arsenal", Price: 20.00, Quantity: 2, Subtotal: 40.00},
	}
}

// --- Tests création de commande ---

func TestCreateOrderLivraisonInvalide(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	seedCart(carts)

	_, err := svc.CreateOrder(context.Background(), cartID, "ship-inconnu", taxID, customerID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, orders.orders, "aucune mutation avant la validation shipping/tax")
}

func TestCreateOrderTaxeInvalide(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	seedCart(carts)

	_, err := svc.CreateOrder(context.Background(), cartID, shippingID, "tax-inconnue", customerID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderPanierVide(t *testing.T) {
	svc, _, orders, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), "panier-inconnu", shippingID, taxID, customerID)
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderMontants(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	seedCart(carts)

	order, err := svc.CreateOrder(context.Background(), cartID, shippingID, taxID, customerID)
	require.NoError(t, err)

	// 20.00 × 2 = 40.00, +10% de taxe = 44.00
	assert.Equal(t, int64(4400), order.TotalCents)
	assert.InDelta(t, 44.00, order.TotalAmount, 0.001)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, cartID, order.CartReference)
	assert.Empty(t, order.ChargeID)

	details := orders.details[order.OrderID]
	require.Len(t, details, 1)
	assert.Equal(t, "T-shirt Arsenal", details[0].ProductName)
	assert.Equal(t, 20.00, details[0].UnitCost)
	assert.Equal(t, 2, details[0].Quantity)

	// le panier n'est PAS vidé à la création, seulement au paiement
	_, err = carts.GetCart(context.Background(), cartID)
	assert.NoError(t, err)
}

func TestCreateOrderInsertionEchouee(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	seedCart(carts)
	orders.insertErr = errors.New("batch refusé")

	_, err := svc.CreateOrder(context.Background(), cartID, shippingID, taxID, customerID)
	require.Error(t, err)
	assert.Empty(t, orders.orders, "échec du batch = zéro ligne visible")
	assert.Empty(t, orders.details)
}

// --- Tests capture ---

func createPendingOrder(t *testing.T, svc *Service, carts *fakeCartStore) *models.Order {
	t.Helper()
	seedCart(carts)
	order, err := svc.CreateOrder(context.Background(), cartID, shippingID, taxID, customerID)
	require.NoError(t, err)
	return order
}

func TestCaptureSuccess(t *testing.T) {
	svc, carts, orders, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	charge, err := svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	require.NoError(t, err)

	assert.Equal(t, int64(4400), charge.AmountCents, "débit en unités mineures")
	assert.Equal(t, "charge-"+order.OrderID, gateway.lastRequest.IdempotencyKey)
	assert.Equal(t, 1, gateway.chargeCalls)

	stored := orders.orders[order.OrderID]
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, "pi_test", stored.ChargeID)
	assert.Equal(t, cartID, stored.CartReference, "la référence panier survit au paiement")

	_, err = carts.GetCart(context.Background(), cartID)
	assert.ErrorIs(t, err, store.ErrNotFound, "panier vidé après paiement")
}

func TestCaptureConcurrente(t *testing.T) {
	svc, carts, orders, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var success, notPayable int
	for err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrNotPayable):
			notPayable++
		default:
			t.Fatalf("erreur inattendue: %v", err)
		}
	}

	assert.Equal(t, 1, success, "exactement une capture aboutit")
	assert.Equal(t, n-1, notPayable)
	assert.Equal(t, 1, gateway.chargeCalls, "exactement une charge passerelle")
	assert.Equal(t, models.OrderStatusPaid, orders.orders[order.OrderID].Status)
}

func TestCaptureEchecPasserelle(t *testing.T) {
	svc, carts, orders, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)
	gateway.chargeErr = errors.New("card_declined")

	_, err := svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	require.ErrorIs(t, err, ErrGateway)

	// aucun état local modifié : commande relâchée en pending, panier intact
	assert.Equal(t, models.OrderStatusPending, orders.orders[order.OrderID].Status)
	_, err = carts.GetCart(context.Background(), cartID)
	assert.NoError(t, err)

	// la commande relâchée reste payable
	gateway.chargeErr = nil
	_, err = svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	assert.NoError(t, err)
}

func TestCaptureClientDeconnectePendantLaCharge(t *testing.T) {
	svc, carts, orders, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	// la requête meurt pendant l'appel passerelle : la charge aboutit
	// côté Stripe mais le contexte est déjà annulé au retour
	ctx, cancel := context.WithCancel(context.Background())
	gateway.onCharge = cancel

	charge, err := svc.Capture(ctx, order.OrderID, customerID, "client@example.com", "pm_card_visa")
	require.NoError(t, err)
	require.NotNil(t, charge)

	// le commit local aboutit quand même : commande payée, panier vidé,
	// jamais de commande échouée en processing
	stored := orders.orders[order.OrderID]
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, "pi_test", stored.ChargeID)
	_, err = carts.GetCart(context.Background(), cartID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCaptureMauvaisProprietaire(t *testing.T) {
	svc, carts, _, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	_, err := svc.Capture(context.Background(), order.OrderID, "autre-client", "autre@example.com", "pm_card_visa")
	require.ErrorIs(t, err, ErrNotPayable)
	assert.Equal(t, 0, gateway.chargeCalls)
}

func TestCaptureDejaPayee(t *testing.T) {
	svc, carts, _, gateway := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	_, err := svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	require.NoError(t, err)

	_, err = svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	assert.ErrorIs(t, err, ErrNotPayable)
	assert.Equal(t, 1, gateway.chargeCalls)
}

// --- Tests réconciliation ---

func TestReconcileFinaliseUneCommandePending(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	// scénario : la charge a abouti côté passerelle mais le commit
	// local a été perdu — le webhook rejoue la finalisation
	err := svc.Reconcile(context.Background(), order.OrderID, "pi_webhook", "client@example.com")
	require.NoError(t, err)

	stored := orders.orders[order.OrderID]
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	assert.Equal(t, "pi_webhook", stored.ChargeID)

	_, err = carts.GetCart(context.Background(), cartID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcileIdempotent(t *testing.T) {
	svc, carts, orders, _ := newTestService(t)
	order := createPendingOrder(t, svc, carts)

	_, err := svc.Capture(context.Background(), order.OrderID, customerID, "client@example.com", "pm_card_visa")
	require.NoError(t, err)

	// le webhook arrive après la capture : no-op, le charge_id d'origine est conservé
	err = svc.Reconcile(context.Background(), order.OrderID, "pi_tardif", "client@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pi_test", orders.orders[order.OrderID].ChargeID)
}

func TestReconcileCommandeInconnue(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Reconcile(context.Background(), "00000000-0000-0000-0000-000000000000", "pi_x", "x@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
