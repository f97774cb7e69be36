package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tshirtshop_back_end/internal/models"
	"tshirtshop_back_end/internal/pricing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const CartTTL = 30 * 24 * time.Hour // 30 jours

// CartStore stocke les lignes de panier dans Redis.
//
// Layout :
//   cart:{cart_id}      → hash  champ product_id → JSON {item_id, attributes, quantity}
//   cartitem:{item_id}  → JSON {cart_id, product_id} (index pour update/remove par item_id)
//
// La fusion add/merge passe par un script Lua : le find-or-create et
// l'incrément de quantité s'exécutent en une seule opération atomique,
// deux adds concurrents du même (cart_id, product_id) ne peuvent ni
// créer un doublon ni perdre un incrément.
type CartStore struct {
	rdb      *redis.Client
	products *ProductStore
}

func NewCartStore(rdb *redis.Client, products *ProductStore) *CartStore {
	return &CartStore{rdb: rdb, products: products}
}

// cartEntry est la valeur JSON d'un champ du hash panier
type cartEntry struct {
	ItemID     string `json:"item_id"`
	Attributes string `json:"attributes"`
	Quantity   int    `json:"quantity"`
}

// itemRef est la valeur JSON de l'index cartitem:{item_id}
type itemRef struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

// mergeScript : upsert-avec-incrément atomique.
// ARGV[3] = 0 signifie "quantité non fournie" (défaut 1 à la création,
// inchangée en fusion). ARGV[2] = "" signifie "attributs non fournis".
var mergeScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
local item
local qty = tonumber(ARGV[3])
if cur then
  item = cjson.decode(cur)
  if qty > 0 then item.quantity = item.quantity + qty end
  if ARGV[2] ~= '' then item.attributes = ARGV[2] end
else
  if qty <= 0 then qty = 1 end
  item = {item_id = ARGV[4], attributes = ARGV[2], quantity = qty}
end
local encoded = cjson.encode(item)
redis.call('HSET', KEYS[1], ARGV[1], encoded)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return encoded
`)

// updateScript : écrasement inconditionnel de la quantité
var updateScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then return false end
local item = cjson.decode(cur)
item.quantity = tonumber(ARGV[2])
local encoded = cjson.encode(item)
redis.call('HSET', KEYS[1], ARGV[1], encoded)
redis.call('EXPIRE', KEYS[1], ARGV[3])
return encoded
`)

func cartKey(cartID string) string {
	return "cart:" + cartID
}

func itemKey(itemID string) string {
	return "cartitem:" + itemID
}

// AddItem ajoute ou fusionne une ligne (cart_id, product_id).
// Le produit doit exister (ErrNotFound sinon). quantity = 0 signifie
// "non fournie" : défaut 1 à la création, quantité existante conservée
// en fusion. attributes = "" signifie "non fournis".
func (s *CartStore) AddItem(ctx context.Context, cartID, productID, attributes string, quantity int) (*models.CartItem, error) {
	// Vérifier l'existence du produit AVANT toute écriture
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	ref, err := json.Marshal(itemRef{CartID: cartID, ProductID: productID})
	if err != nil {
		return nil, err
	}

	ttlSecs := int(CartTTL.Seconds())
	newItemID := uuid.NewString()

	res, err := mergeScript.Run(ctx, s.rdb,
		[]string{cartKey(cartID)},
		productID, attributes, quantity, newItemID, ttlSecs,
	).Text()
	if err != nil {
		return nil, fmt.Errorf("fusion panier: %w", err)
	}

	var entry cartEntry
	if err := json.Unmarshal([]byte(res), &entry); err != nil {
		return nil, fmt.Errorf("décodage ligne panier: %w", err)
	}

	// Index item_id → (cart_id, product_id), hors script : le contrat
	// EVAL exige que toute clé touchée soit déclarée dans KEYS, et sur
	// un cluster cette clé ne partage pas le slot du hash panier.
	// En fusion, réécrire la même valeur rafraîchit juste le TTL.
	if err := s.rdb.Set(ctx, itemKey(entry.ItemID), string(ref), CartTTL).Err(); err != nil {
		return nil, fmt.Errorf("index item panier: %w", err)
	}

	s.notify(ctx, cartID, "updated")

	return &models.CartItem{
		ItemID:     entry.ItemID,
		CartID:     cartID,
		ProductID:  productID,
		Attributes: entry.Attributes,
		Quantity:   entry.Quantity,
	}, nil
}

// UpdateItem écrase la quantité d'une ligne identifiée par item_id.
func (s *CartStore) UpdateItem(ctx context.Context, itemID string, quantity int) (*models.CartItem, error) {
	ref, err := s.resolveItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	res, err := updateScript.Run(ctx, s.rdb,
		[]string{cartKey(ref.CartID)},
		ref.ProductID, quantity, int(CartTTL.Seconds()),
	).Text()
	if err == redis.Nil {
		// index présent mais ligne disparue (panier expiré)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mise à jour panier: %w", err)
	}

	var entry cartEntry
	if err := json.Unmarshal([]byte(res), &entry); err != nil {
		return nil, fmt.Errorf("décodage ligne panier: %w", err)
	}

	s.notify(ctx, ref.CartID, "updated")

	return &models.CartItem{
		ItemID:     entry.ItemID,
		CartID:     ref.CartID,
		ProductID:  ref.ProductID,
		Attributes: entry.Attributes,
		Quantity:   entry.Quantity,
	}, nil
}

// GetCart retourne les lignes du panier enrichies avec les données
// produit actuelles, triées par product_id. ErrNotFound si le panier
// n'a aucune ligne (panier vide et panier inconnu sont confondus, les
// cart_id sont des jetons opaques côté client).
func (s *CartStore) GetCart(ctx context.Context, cartID string) ([]models.PricedLine, error) {
	fields, err := s.rdb.HGetAll(ctx, cartKey(cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	lines := make([]models.PricedLine, 0, len(fields))
	for productID, raw := range fields {
		var entry cartEntry
		if json.Unmarshal([]byte(raw), &entry) != nil {
			continue
		}

		product, err := s.products.Get(ctx, productID)
		if err == ErrNotFound {
			// produit retiré du catalogue depuis l'ajout : la ligne
			// ne peut plus être tarifée, on la saute
			continue
		}
		if err != nil {
			return nil, err
		}

		unit := pricing.UnitPrice(product.Price, product.DiscountedPrice)
		subtotal := unit.Mul(decimal.NewFromInt(int64(entry.Quantity)))

		lines = append(lines, models.PricedLine{
			ItemID:          entry.ItemID,
			CartID:          cartID,
			ProductID:       productID,
			Name:            product.Name,
			Attributes:      entry.Attributes,
			Price:           unit.InexactFloat64(),
			DiscountedPrice: product.DiscountedPrice,
			Quantity:        entry.Quantity,
			Subtotal:        subtotal.InexactFloat64(),
			Image:           s.products.SignedImageURL(ctx, product.Image),
		})
	}

	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

// RemoveItem supprime une ligne par item_id. ErrNotFound si l'item est
// inconnu — jamais une erreur interne, la suppression est idempotente.
func (s *CartStore) RemoveItem(ctx context.Context, itemID string) error {
	ref, err := s.resolveItem(ctx, itemID)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.HDel(ctx, cartKey(ref.CartID), ref.ProductID)
	pipe.Del(ctx, itemKey(itemID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("suppression ligne panier: %w", err)
	}

	s.notify(ctx, ref.CartID, "updated")
	return nil
}

// EmptyCart supprime toutes les lignes d'un panier. ErrNotFound si le
// panier n'existe pas ; idempotent pour le reste.
func (s *CartStore) EmptyCart(ctx context.Context, cartID string) error {
	fields, err := s.rdb.HGetAll(ctx, cartKey(cartID)).Result()
	if err != nil {
		return fmt.Errorf("lecture panier: %w", err)
	}
	if len(fields) == 0 {
		return ErrNotFound
	}

	keys := []string{cartKey(cartID)}
	for _, raw := range fields {
		var entry cartEntry
		if json.Unmarshal([]byte(raw), &entry) == nil && entry.ItemID != "" {
			keys = append(keys, itemKey(entry.ItemID))
		}
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("vidage panier: %w", err)
	}

	s.notify(ctx, cartID, "cleared")
	return nil
}

// resolveItem retrouve (cart_id, product_id) depuis l'index item_id
func (s *CartStore) resolveItem(ctx context.Context, itemID string) (*itemRef, error) {
	data, err := s.rdb.Get(ctx, itemKey(itemID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("résolution item: %w", err)
	}

	var ref itemRef
	if err := json.Unmarshal([]byte(data), &ref); err != nil {
		return nil, fmt.Errorf("décodage index item: %w", err)
	}
	return &ref, nil
}

// notify publie un évènement de synchronisation pour les websockets
func (s *CartStore) notify(ctx context.Context, cartID, event string) {
	s.rdb.Publish(ctx, SyncChannel(cartID), event)
}

// SyncChannel est le canal pub/sub Redis d'un panier
func SyncChannel(cartID string) string {
	return "cartsync:" + cartID
}
