package model

import (
	"crypto/rand"
	"encoding/hex"
)

// ID 格式：24 位十六进制字符串（12 随机字节）。

const objectIDLen = 24

// NewID returns a fresh 24-character hexadecimal identifier.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ValidID reports whether s is a well-formed 24-character hex identifier.
// Anything else must be rejected before it reaches the store.
func ValidID(s string) bool {
	if len(s) != objectIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
