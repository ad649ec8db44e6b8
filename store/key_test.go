package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	input := map[string]any{"method": "GET", "path": "/api/v1/products", "page": 2}
	first := GenerateKey(input)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, GenerateKey(map[string]any{"page": 2, "path": "/api/v1/products", "method": "GET"}))
	}
	require.Len(t, first, 64)
}

func TestGenerateKeyStringInput(t *testing.T) {
	require.Equal(t, GenerateKey("GET:/api/v1/products"), GenerateKey("GET:/api/v1/products"))
	require.NotEqual(t, GenerateKey("GET:/a"), GenerateKey("GET:/b"))
}

func TestGenerateKeyDistinguishesStructuredInput(t *testing.T) {
	a := GenerateKey(map[string]any{"id": 1})
	b := GenerateKey(map[string]any{"id": 2})
	require.NotEqual(t, a, b)

	type query struct {
		Term  string `json:"term"`
		Limit int    `json:"limit"`
	}
	require.Equal(t, GenerateKey(query{"go", 10}), GenerateKey(query{"go", 10}))
	require.NotEqual(t, GenerateKey(query{"go", 10}), GenerateKey(query{"go", 20}))
}
