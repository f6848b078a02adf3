package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Count int    `json:"count"`
}

func TestReadStore_SetAndGet(t *testing.T) {
	rs := NewReadStore()

	require.NoError(t, rs.Set("users", "user-1", &testDoc{ID: "user-1", Email: "alice@example.com"}))

	data, ok, err := rs.Get("users", "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", data.(*testDoc).Email)

	_, ok, err = rs.Get("users", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = rs.Get("missing-collection", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadStore_GetAll(t *testing.T) {
	rs := NewReadStore()

	require.NoError(t, rs.Set("users", "user-1", &testDoc{ID: "user-1"}))
	require.NoError(t, rs.Set("users", "user-2", &testDoc{ID: "user-2"}))

	items, err := rs.GetAll("users")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	empty, err := rs.GetAll("orders")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadStore_FindOne(t *testing.T) {
	rs := NewReadStore()

	require.NoError(t, rs.Set("users", "user-1", &testDoc{ID: "user-1", Email: "alice@example.com"}))
	require.NoError(t, rs.Set("users", "user-2", &testDoc{ID: "user-2", Email: "bob@example.com"}))

	data, ok, err := rs.FindOne("users", "email", "bob@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-2", data.(*testDoc).ID)

	_, ok, err = rs.FindOne("users", "email", "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadStore_Delete(t *testing.T) {
	rs := NewReadStore()

	require.NoError(t, rs.Set("users", "user-1", &testDoc{ID: "user-1"}))
	require.NoError(t, rs.Delete("users", "user-1"))

	_, ok, err := rs.Get("users", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting from an unknown collection is a no-op
	assert.NoError(t, rs.Delete("orders", "order-1"))
}

func TestReadStore_Update(t *testing.T) {
	rs := NewReadStore()

	require.NoError(t, rs.Set("users", "user-1", &testDoc{ID: "user-1", Count: 1}))

	updated, err := rs.Update("users", "user-1", func(current any) any {
		doc := current.(*testDoc)
		doc.Count++
		return doc
	})
	require.NoError(t, err)
	assert.True(t, updated)

	data, _, err := rs.Get("users", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, data.(*testDoc).Count)

	updated, err = rs.Update("users", "ghost", func(current any) any { return current })
	require.NoError(t, err)
	assert.False(t, updated)
}
