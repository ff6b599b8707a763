package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func testSeed() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func TestAttestAndVerify(t *testing.T) {
	priv, pub, err := KeyPairFromSeed(testSeed())
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	attestor := NewAttestor("test-key", priv)
	canonical := []byte(`{"schema":"export"}`)

	digest, sig, err := attestor.Attest(canonical)
	if err != nil {
		t.Fatalf("attest: %v", err)
	}
	if !strings.HasPrefix(digest, "sha256:") {
		t.Fatalf("digest missing prefix: %s", digest)
	}
	if digest != DigestWithPrefix(canonical) {
		t.Fatalf("digest mismatch: %s", digest)
	}

	ok, err := VerifyAttestation(pub, canonical, sig)
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyAttestation(pub, []byte(`{"schema":"tampered"}`), sig)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("tampered canonical bytes verified")
	}
}

func TestVerifyAttestationBadEncoding(t *testing.T) {
	_, pub, err := KeyPairFromSeed(testSeed())
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	if _, err := VerifyAttestation(pub, []byte("x"), "%%%not-base64%%%"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestKeyPairFromSeedSize(t *testing.T) {
	if _, _, err := KeyPairFromSeed([]byte("short")); err != ErrInvalidSeedSize {
		t.Fatalf("expected ErrInvalidSeedSize, got %v", err)
	}
}
