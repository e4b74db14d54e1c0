package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters are fixed; stored verifiers do not encode them, so changing
// any of these invalidates every existing password.
const (
	pbkdf2Iterations = 100000
	saltSize         = 16
	derivedKeySize   = 32
)

var dummySalt = []byte("jumptrack/no-such-account")

// HashPassword derives a salted PBKDF2-SHA256 verifier and encodes it as
// "hex(salt):hex(key)".
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, derivedKeySize, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key)
}

// VerifyPassword re-derives the key from the stored salt and compares it to
// the stored key in constant time.
func VerifyPassword(password, stored string) bool {
	saltHex, keyHex, found := strings.Cut(stored, ":")
	if !found {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, derivedKeySize, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// DeriveDummy burns the same KDF cost as a real verification. Login paths
// call it when the account does not exist or has no password, so a probe
// cannot enumerate accounts by timing.
func DeriveDummy(password string) {
	pbkdf2.Key([]byte(password), dummySalt, pbkdf2Iterations, derivedKeySize, sha256.New)
}
