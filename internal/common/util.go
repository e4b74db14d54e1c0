package common

import "crypto/rand"

// inviteAlphabet omits 0/O and 1/I to keep codes unambiguous when read aloud.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandByteArray returns size cryptographically random bytes.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// MakeInviteCode returns a human-friendly random code of the given length.
func MakeInviteCode(length int) string {
	b := GenerateRandByteArray(length)
	out := make([]byte, length)
	for i, v := range b {
		out[i] = inviteAlphabet[int(v)%len(inviteAlphabet)]
	}
	return string(out)
}
