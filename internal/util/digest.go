package util

import (
	"strconv"
	"unicode/utf16"
)

// Digest maps a password to a short textual digest used only for equality
// comparison at login. This is a deliberate mock of credential storage, NOT
// a security-grade hash: it is the classic 31x rolling hash over UTF-16 code
// units, truncated to 32 bits, and must stay byte-compatible with digests
// already persisted by earlier builds of the product.
func Digest(password string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(password)) {
		h = h<<5 - h + int32(u)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return "hash_" + strconv.FormatInt(v, 36)
}
