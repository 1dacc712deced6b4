package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// RandomCode returns an upper-case base32 code of n characters.
func RandomCode(n int) (string, error) {
	buf := make([]byte, (n*5+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(codeEncoding.EncodeToString(buf)[:n]), nil
}
