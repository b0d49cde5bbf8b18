package session

import "crypto/subtle"

// SecretLength is the byte length of a secret half (a canonical UUID).
const SecretLength = 36

// SecretEqual reports whether presented matches stored. Both inputs are
// copied into fixed SecretLength buffers and compared in full; a length
// mismatch still performs the full comparison and then fails.
func SecretEqual(stored, presented string) bool {
	var a, b [SecretLength]byte

	copy(a[:], stored)
	copy(b[:], presented)

	lengthOK := subtle.ConstantTimeEq(int32(len(stored)), SecretLength) &
		subtle.ConstantTimeEq(int32(len(presented)), SecretLength)

	return subtle.ConstantTimeCompare(a[:], b[:])&lengthOK == 1
}
