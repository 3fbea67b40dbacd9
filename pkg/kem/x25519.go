package kem

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const x25519Size = curve25519.ScalarSize

var x25519Info = []byte("kembench-x25519-kem")

// X25519 is a classical Diffie-Hellman KEM over Curve25519. It is not post-quantum;
// it gives the post-quantum rows a familiar baseline to compare against.
//
// The ciphertext is the ephemeral public key and the shared secret is
// HKDF-SHA256(dh, info = label || ct || pk).
type X25519 struct{}

// NewX25519 creates a new X25519 KEM instance
func NewX25519() *X25519 {
	return &X25519{}
}

func (k *X25519) Name() string {
	return "X25519"
}

func (k *X25519) PublicKeySize() int {
	return curve25519.PointSize
}

func (k *X25519) SecretKeySize() int {
	return x25519Size
}

func (k *X25519) CiphertextSize() int {
	return curve25519.PointSize
}

func (k *X25519) SharedSecretSize() int {
	return sha256.Size
}

func (k *X25519) GenerateKeyInto(publicKey, secretKey []byte, rng io.Reader) error {
	if rng == nil {
		rng = rand.Reader
	}

	if _, err := io.ReadFull(rng, secretKey); err != nil {
		return fmt.Errorf("X25519 key generation failed: %w", err)
	}
	pub, err := curve25519.X25519(secretKey, curve25519.Basepoint)
	if err != nil {
		return fmt.Errorf("X25519 key generation failed: %w", err)
	}
	copy(publicKey, pub)
	return nil
}

// EncapsulateInto uses ciphertext as the ephemeral public key, so no separate
// ephemeral buffer is kept.
func (k *X25519) EncapsulateInto(ciphertext, sharedSecret, publicKey []byte, rng io.Reader) error {
	if len(publicKey) != curve25519.PointSize {
		return fmt.Errorf("invalid public key size: got %d, want %d", len(publicKey), curve25519.PointSize)
	}

	var ephemeral [x25519Size]byte
	if err := k.GenerateKeyInto(ciphertext, ephemeral[:], rng); err != nil {
		return fmt.Errorf("encapsulation failed: %w", err)
	}

	dh, err := curve25519.X25519(ephemeral[:], publicKey)
	if err != nil {
		return fmt.Errorf("encapsulation failed: %w", err)
	}
	return deriveX25519Secret(sharedSecret, dh, ciphertext, publicKey)
}

func (k *X25519) DecapsulateInto(sharedSecret, ciphertext, secretKey []byte) error {
	if len(ciphertext) != curve25519.PointSize {
		return fmt.Errorf("invalid ciphertext size: got %d, want %d", len(ciphertext), curve25519.PointSize)
	}
	if len(secretKey) != x25519Size {
		return fmt.Errorf("invalid secret key size: got %d, want %d", len(secretKey), x25519Size)
	}

	dh, err := curve25519.X25519(secretKey, ciphertext)
	if err != nil {
		return fmt.Errorf("decapsulation failed: %w", err)
	}
	publicKey, err := curve25519.X25519(secretKey, curve25519.Basepoint)
	if err != nil {
		return fmt.Errorf("decapsulation failed: %w", err)
	}
	return deriveX25519Secret(sharedSecret, dh, ciphertext, publicKey)
}

func (k *X25519) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	publicKey = make([]byte, curve25519.PointSize)
	secretKey = make([]byte, x25519Size)
	if err := k.GenerateKeyInto(publicKey, secretKey, rng); err != nil {
		return nil, nil, err
	}
	return publicKey, secretKey, nil
}

func (k *X25519) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	ciphertext = make([]byte, curve25519.PointSize)
	sharedSecret = make([]byte, sha256.Size)
	if err := k.EncapsulateInto(ciphertext, sharedSecret, publicKey, rng); err != nil {
		return nil, nil, err
	}
	return ciphertext, sharedSecret, nil
}

func (k *X25519) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	sharedSecret = make([]byte, sha256.Size)
	if err := k.DecapsulateInto(sharedSecret, ciphertext, secretKey); err != nil {
		return nil, err
	}
	return sharedSecret, nil
}

func deriveX25519Secret(dst, dh, ciphertext, publicKey []byte) error {
	info := make([]byte, 0, len(x25519Info)+len(ciphertext)+len(publicKey))
	info = append(info, x25519Info...)
	info = append(info, ciphertext...)
	info = append(info, publicKey...)

	if _, err := io.ReadFull(hkdf.New(sha256.New, dh, nil, info), dst); err != nil {
		return fmt.Errorf("failed to derive shared secret: %w", err)
	}
	return nil
}
