package readmodel

import (
	"encoding/json"

	"github.com/example/storefront/internal/infrastructure/store"
)

// Collection names shared by the projector and the query side.
const (
	CollectionProducts  = "products"
	CollectionOrders    = "orders"
	CollectionInventory = "inventory"
	CollectionUsers     = "users"
	CollectionSessions  = "sessions"
)

// Decoders maps each collection to its typed decoder for document-backed
// read stores.
func Decoders() map[string]store.DecodeFunc {
	return map[string]store.DecodeFunc{
		CollectionProducts: func(data []byte) (any, error) {
			var m ProductReadModel
			err := json.Unmarshal(data, &m)
			return &m, err
		},
		CollectionOrders: func(data []byte) (any, error) {
			var m OrderReadModel
			err := json.Unmarshal(data, &m)
			return &m, err
		},
		CollectionInventory: func(data []byte) (any, error) {
			var m InventoryReadModel
			err := json.Unmarshal(data, &m)
			return &m, err
		},
		CollectionUsers: func(data []byte) (any, error) {
			var m UserReadModel
			err := json.Unmarshal(data, &m)
			return &m, err
		},
		CollectionSessions: func(data []byte) (any, error) {
			var m SessionReadModel
			err := json.Unmarshal(data, &m)
			return &m, err
		},
	}
}
