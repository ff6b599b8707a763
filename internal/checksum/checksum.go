// Package checksum implements the ledger's integrity digest: a fast,
// deterministic, non-cryptographic 256-bit checksum used for chain
// linking. It is not a commitment against an adversary with compute
// budget; externally-verifiable attestations use Ed25519 over SHA-256 in
// internal/crypto instead.
package checksum

import (
	"fmt"
	"strings"
)

// Genesis is the previous-hash value of the first chain entry.
const Genesis = "0000000000000000"

// Lane seeds. Distinct odd constants so the passes diverge immediately.
var seeds = [8]uint32{
	0x811c9dc5,
	0x01000193,
	0x85ebca6b,
	0xc2b2ae35,
	0x27d4eb2f,
	0x165667b1,
	0x9e3779b1,
	0x2545f491,
}

// Sum digests data into 64 lowercase hex characters: eight independent
// 32-bit multiplicative rolling hashes, each bit-mixed, concatenated as
// 8-hex-char groups.
func Sum(data []byte) string {
	var out strings.Builder
	out.Grow(64)
	for _, seed := range seeds {
		fmt.Fprintf(&out, "%08x", lane(data, seed))
	}
	return out.String()
}

func lane(data []byte, seed uint32) uint32 {
	h := seed
	for _, b := range data {
		h ^= uint32(b)
		h *= 0x01000193
		h = h<<13 | h>>19
	}
	return fmix32(h ^ uint32(len(data)))
}

// fmix32 is the murmur3 finalizer; it gives each lane avalanche behavior so
// single-bit corruption flips roughly half the output bits.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
