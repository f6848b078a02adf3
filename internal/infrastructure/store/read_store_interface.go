package store

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	// Set stores a read model
	Set(collection, id string, data any) error

	// Get retrieves a read model by id
	Get(collection, id string) (any, bool, error)

	// GetAll retrieves all items in a collection
	GetAll(collection string) ([]any, error)

	// FindOne retrieves the first read model whose top-level JSON field
	// matches value (email lookups, tracking number lookups)
	FindOne(collection, field, value string) (any, bool, error)

	// Delete removes a read model
	Delete(collection, id string) error

	// Update modifies a read model using an update function; returns false
	// when the model does not exist
	Update(collection, id string, updateFn func(current any) any) (bool, error)
}
