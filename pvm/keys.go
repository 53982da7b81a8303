package pvm

import "golang.org/x/crypto/blake2b"

// State-key derivation C(s, h). Grounded
// on ProbeChain's crypto/crypto.go pattern of wrapping an x/crypto hash
// package behind a small named function; the Gray Paper mandates blake2b-256
// specifically (not the keccak ProbeChain itself uses), so we reach for the
// blake2b subpackage of the same golang.org/x/crypto module ProbeChain's
// go.mod already requires.

// keyDiscriminant selects which blake2b preimage C(s,h) hashes before
// interleaving, across the three named discriminant cases.
type keyDiscriminant int

const (
	KeyForStorage keyDiscriminant = iota
	KeyForPreimage
	KeyForRequest
)

// DeriveStateKey computes C(s, h): interleave the 4 little-endian bytes of s
// with the first 4 bytes of h', then append h'[4:27], producing 31 bytes.
//
// For storage keys h' = blake2b256(encode[4](0xFFFFFFFF) || k)[:27]; for
// preimages h' = blake2b256(encode[4](0xFFFFFFFE) || hash)[:27]; for requests
// h' = blake2b256(encode[4](length) || hash)[:27]. If input is already 27
// bytes it is used directly (round-trip from persisted state).
func DeriveStateKey(s uint32, kind keyDiscriminant, k []byte, length uint32) ([31]byte, error) {
	var hPrime []byte
	if len(k) == 27 {
		hPrime = k
	} else {
		var discriminant uint32
		switch kind {
		case KeyForStorage:
			discriminant = 0xFFFFFFFF
		case KeyForPreimage:
			discriminant = 0xFFFFFFFE
		case KeyForRequest:
			discriminant = length
		default:
			return [31]byte{}, malformed("deriveStateKey: unknown discriminant kind %d", kind)
		}
		preimage := append(EncodeFixed(uint64(discriminant), 4), k...)
		sum := blake2b.Sum256(preimage)
		hPrime = sum[:27]
	}

	var out [31]byte
	sBytes := EncodeFixed(uint64(s), 4)
	for i := 0; i < 4; i++ {
		out[2*i] = sBytes[i]
		out[2*i+1] = hPrime[i]
	}
	copy(out[8:], hPrime[4:27])
	return out, nil
}
