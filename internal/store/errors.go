package store

import "errors"

var (
	// ErrNotFound : produit, ligne, panier ou commande inexistant
	ErrNotFound = errors.New("ressource introuvable")

	// ErrNotPayable : la commande n'est pas en statut pending pour ce
	// client (mauvais propriétaire, id inconnu ou déjà payée — la
	// distinction n'est pas exposée à l'appelant)
	ErrNotPayable = errors.New("commande introuvable ou non payable")
)
