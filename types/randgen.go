package types

import (
	"github.com/dchest/uniuri"
)

// GenerateSessionID returns a randomly generated disruption session ID
func GenerateSessionID() string {
	return uniuri.NewLenChars(16, []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"))
}

// GenerateRawStatusID returns a randomly generated raw status row ID
func GenerateRawStatusID() string {
	return uniuri.NewLenChars(16, []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"))
}
