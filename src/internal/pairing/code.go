// Package pairing implements the handshake that authorizes an iTunes remote:
// the pairing code hash, the HTTP pairing call against the remote and the
// registry of remotes currently announcing themselves.
package pairing

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode/utf16"
)

// GenerateCode computes the 32 digit pairing code a remote expects: the MD5
// of the announced Pair id (as ASCII, zero padded to 16 bytes) followed by
// the four digit passcode in UTF-16 LE, in uppercase hex.
func GenerateCode(passcode, pairID string) string {
	msg := make([]byte, 24)
	copy(msg[:16], pairID)

	units := utf16.Encode([]rune(passcode))
	if len(units) > 4 {
		units = units[:4]
	}
	for i, u := range units {
		binary.LittleEndian.PutUint16(msg[16+2*i:], u)
	}

	sum := md5.Sum(msg)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
