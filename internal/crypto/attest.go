package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// DigestBytes returns the raw SHA-256 digest bytes.
func DigestBytes(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// DigestWithPrefix returns the SHA-256 digest as "sha256:" + lowercase hex.
func DigestWithPrefix(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Attestor signs export digests with Ed25519. This is the external
// attestation capability: it never sits on the ledger append path.
type Attestor struct {
	keyID string
	priv  ed25519.PrivateKey
}

func NewAttestor(keyID string, priv ed25519.PrivateKey) *Attestor {
	return &Attestor{keyID: keyID, priv: priv}
}

func (a *Attestor) KeyID() string {
	return a.keyID
}

// Attest signs the SHA-256 digest of canonical and returns the digest
// string plus the base64 signature.
func (a *Attestor) Attest(canonical []byte) (digest string, sig string, err error) {
	digestBytes := DigestBytes(canonical)
	raw := ed25519.Sign(a.priv, digestBytes)
	return DigestWithPrefix(canonical), base64.StdEncoding.EncodeToString(raw), nil
}

// VerifyAttestation checks a base64 signature over canonical bytes.
func VerifyAttestation(publicKey ed25519.PublicKey, canonical []byte, sig string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(publicKey, DigestBytes(canonical), raw), nil
}
