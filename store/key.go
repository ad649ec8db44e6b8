package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenerateKey derives a deterministic fixed-length cache key from arbitrary
// input. Strings and byte slices are hashed verbatim; any other value is
// canonicalized through JSON first (encoding/json emits map keys in sorted
// order, so equivalent inputs produce the same key across processes).
func GenerateKey(input any) string {
	var raw []byte
	switch v := input.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(input)
		if err != nil {
			encoded = fmt.Appendf(nil, "%+v", input)
		}
		raw = encoded
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
