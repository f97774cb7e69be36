// Package pricing calcule les montants d'une commande en décimal fixe.
// Jamais de float binaire dans les calculs d'argent : les arrondis
// doivent être reproductibles au centime près.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line est une ligne à tarifer : prix unitaire retenu × quantité.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

// Quote est le résultat de la tarification d'un panier.
//
// Politique d'arrondi : la taxe n'est PAS pré-arrondie. Le total final
// est round(sous-total + taxe brute, 2) en arrondi commercial (half-up).
// Tax est arrondie à 2 décimales pour l'affichage uniquement.
type Quote struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	TotalCents int64
}

// UnitPrice retourne le prix unitaire retenu pour une ligne :
// discounted_price si > 0, sinon price.
func UnitPrice(price, discountedPrice float64) decimal.Decimal {
	if discountedPrice > 0 {
		return decimal.NewFromFloat(discountedPrice)
	}
	return decimal.NewFromFloat(price)
}

// Compute tarife un ensemble de lignes avec un pourcentage de taxe.
// Fonction pure, aucune E/S.
func Compute(lines []Line, taxPercentage decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}

	rawTax := taxPercentage.Mul(subtotal).Div(hundred)
	total := subtotal.Add(rawTax).Round(2)

	return Quote{
		Subtotal:   subtotal,
		Tax:        rawTax.Round(2),
		Total:      total,
		TotalCents: total.Mul(hundred).IntPart(),
	}
}
