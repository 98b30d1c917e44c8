package library

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Sha256Sum hashes a string, a byte slice or anything printable, returning lower case hex.
func Sha256Sum(data interface{}) Sha256 {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	case fmt.Stringer:
		b = []byte(d.String())
	default:
		b = []byte(fmt.Sprint(d))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ChainHash links parts onto prev with "|" separators and hashes the result.
func ChainHash(prev Sha256, parts ...string) Sha256 {
	return Sha256Sum(strings.Join(append([]string{prev}, parts...), "|"))
}
