package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHashDeterminism(t *testing.T) {
	q := NewIRObject(F("layer", IRInt(4)), F("mtype", IRString("L4_PC")))

	h1, err := QueryHash(q)
	require.NoError(t, err)
	h2, err := QueryHash(q)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex digest")
}

func TestQueryHashIgnoresKeyOrder(t *testing.T) {
	a := NewIRObject(F("layer", IRInt(4)), F("mtype", IRString("L4_PC")))
	b := NewIRObject(F("mtype", IRString("L4_PC")), F("layer", IRInt(4)))

	assert.Equal(t, MustQueryHash(a), MustQueryHash(b))
}

func TestQueryHashChangesWithContent(t *testing.T) {
	a := NewIRObject(F("layer", IRInt(4)))
	b := NewIRObject(F("layer", IRInt(5)))
	c := NewIRObject(F("layer", IRFloat(4.5)))

	assert.NotEqual(t, MustQueryHash(a), MustQueryHash(b))
	assert.NotEqual(t, MustQueryHash(a), MustQueryHash(c))
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainQuery, data), hashWithDomain(DomainNodeSet, data))
}

func TestNodeSetHash(t *testing.T) {
	def := NewIRObject(F("layer", IRInt(2)))

	h1, err := NodeSetHash("Layer2", def)
	require.NoError(t, err)
	h2, err := NodeSetHash("Layer3", def)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestMustQueryHashPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustQueryHash(IRFloat(posInf()))
	})
}
