package store

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"tshirtshop_back_end/internal/cache"
	"tshirtshop_back_end/internal/database"
	"tshirtshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// ProductStore expose la capacité "lookup produit" consommée par le
// panier et la création de commande. Le reste du catalogue (recherche,
// variantes, avis) n'est pas de son ressort.
type ProductStore struct {
	session *gocql.Session
}

func NewProductStore(session *gocql.Session) *ProductStore {
	return &ProductStore{session: session}
}

// Get récupère un produit par id, cache Redis d'abord, ScyllaDB ensuite.
// Retourne ErrNotFound si le produit n'existe pas.
func (s *ProductStore) Get(ctx context.Context, productID string) (*models.Product, error) {
	// 1. Essayer le cache Redis
	if p := cache.GetProduct(ctx, productID); p != nil {
		return p, nil
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrNotFound
	}

	// 2. Récupérer de ScyllaDB
	var (
		dbID                      gocql.UUID
		name, description         string
		price, discountedPrice    float64
		image, thumbnail          string
		stock                     int
	)

	err = s.session.Query(database.SelectProductByID, gocql.UUID(pid)).WithContext(ctx).Scan(
		&dbID, &name, &description, &price, &discountedPrice, &image, &thumbnail, &stock)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:              dbID.String(),
		Name:            name,
		Description:     description,
		Price:           price,
		DiscountedPrice: discountedPrice,
		Image:           image,
		Thumbnail:       thumbnail,
		Stock:           stock,
	}

	// 3. Mettre en cache
	cache.SetProduct(ctx, product)

	return product, nil
}

// SignedImageURL génère une URL signée MinIO pour une image produit.
// Retombe sur le chemin brut si MinIO n'est pas configuré.
func (s *ProductStore) SignedImageURL(ctx context.Context, objectPath string) string {
	if objectPath == "" || database.MinIO == nil {
		return objectPath
	}

	bucket := os.Getenv("MINIO_BUCKET")

	// Nettoie l'URL complète pour ne garder que le chemin relatif au bucket
	key := objectPath
	if idx := strings.Index(key, "/"+bucket+"/"); idx >= 0 {
		key = key[idx+len(bucket)+2:]
	}

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, key, 15*time.Minute, url.Values{})
	if err != nil {
		return objectPath
	}
	return presignedURL.String()
}
