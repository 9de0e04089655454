package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	// Every entity gets its own identity
	other := NewBaseEntity()
	assert.NotEqual(t, e.ID, other.ID)
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	created := e.CreatedAt

	time.Sleep(time.Millisecond)
	e.Touch()

	require.True(t, e.UpdatedAt.After(created))
	assert.Equal(t, created, e.CreatedAt)
}
