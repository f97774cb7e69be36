package database

// Requêtes CQL des chemins chauds du pipeline panier → commande →
// paiement, centralisées ici. gocql prépare et met en cache chaque
// statement par session à la première exécution : construire le Query
// à chaque appel ne re-prépare rien.
//
// Ne jamais partager un *gocql.Query lié entre requêtes : Bind mute
// l'objet en place, deux requêtes concurrentes se marcheraient dessus.
const (
	// Projection produit consommée par le panier et la commande
	SelectProductByID = `SELECT product_id, name, description, price, discounted_price, image, thumbnail, stock
		FROM products WHERE product_id = ?`

	// Tables de référence livraison / taxe
	SelectShipping = `SELECT shipping_id, shipping_type, shipping_cost, shipping_region FROM shipping WHERE shipping_id = ?`
	SelectTax      = `SELECT tax_id, tax_type, tax_percentage FROM tax WHERE tax_id = ?`

	// En-tête de commande (colonnes statiques de la partition)
	SelectOrderHeader = `SELECT customer_id, total_cents, status, auth_code, cart_reference, charge_id, shipping_id, tax_id, comments, created_on
		FROM orders_by_id WHERE order_id = ? LIMIT 1`

	// Lignes de commande (instantanés immuables)
	SelectOrderLines = `SELECT product_id, product_name, attributes, unit_cost, quantity
		FROM orders_by_id WHERE order_id = ?`
)
