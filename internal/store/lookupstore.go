package store

import (
	"context"

	"tshirtshop_back_end/internal/database"
	"tshirtshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// LookupStore résout les tables de référence livraison et taxe.
type LookupStore struct {
	session *gocql.Session
}

func NewLookupStore(session *gocql.Session) *LookupStore {
	return &LookupStore{session: session}
}

// Shipping résout un type de livraison, ErrNotFound si inconnu.
func (s *LookupStore) Shipping(ctx context.Context, shippingID string) (*models.Shipping, error) {
	sid, err := uuid.Parse(shippingID)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		dbID                 gocql.UUID
		shippingType, region string
		cost                 float64
	)

	err = s.session.Query(database.SelectShipping, gocql.UUID(sid)).WithContext(ctx).Scan(&dbID, &shippingType, &cost, &region)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &models.Shipping{
		ShippingID:   dbID.String(),
		ShippingType: shippingType,
		Cost:         cost,
		Region:       region,
	}, nil
}

// Tax résout un type de taxe, ErrNotFound si inconnu.
func (s *LookupStore) Tax(ctx context.Context, taxID string) (*models.Tax, error) {
	tid, err := uuid.Parse(taxID)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		dbID       gocql.UUID
		taxType    string
		percentage float64
	)

	err = s.session.Query(database.SelectTax, gocql.UUID(tid)).WithContext(ctx).Scan(&dbID, &taxType, &percentage)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &models.Tax{
		TaxID:      dbID.String(),
		TaxType:    taxType,
		Percentage: percentage,
	}, nil
}
