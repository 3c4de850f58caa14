package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New()
	parsed, err := googleuuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())
	assert.Equal(t, googleuuid.RFC4122, parsed.Variant())
}

func TestNew_TimeOrdered(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)
	// The millisecond prefix never goes backwards.
	assert.LessOrEqual(t, a[:13], b[:13])
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(New()))
	assert.False(t, IsValid("123"))
	assert.False(t, IsValid(""))
}
