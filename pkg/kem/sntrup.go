package kem

import (
	"crypto/rand"
	"fmt"
	"io"

	sntrup "github.com/companyzero/sntrup4591761"
)

// Sntrup4591761 is Streamlined NTRU Prime 4591^761, the round-1 parameter
// set. It is not sntrup761.
//
// The library works on fixed-size arrays, so caller buffers are viewed as
// arrays in place instead of being copied in.
type Sntrup4591761 struct{}

// NewSntrup4591761 creates a new sntrup4591761 KEM instance
func NewSntrup4591761() *Sntrup4591761 {
	return &Sntrup4591761{}
}

func (k *Sntrup4591761) Name() string          { return "sntrup4591761" }
func (k *Sntrup4591761) PublicKeySize() int    { return sntrup.PublicKeySize }
func (k *Sntrup4591761) SecretKeySize() int    { return sntrup.PrivateKeySize }
func (k *Sntrup4591761) CiphertextSize() int   { return sntrup.CiphertextSize }
func (k *Sntrup4591761) SharedSecretSize() int { return sntrup.SharedKeySize }

func (k *Sntrup4591761) GenerateKeyInto(publicKey, secretKey []byte, rng io.Reader) error {
	if rng == nil {
		rng = rand.Reader
	}

	pub, priv, err := sntrup.GenerateKey(rng)
	if err != nil {
		return fmt.Errorf("sntrup4591761 key generation failed: %w", err)
	}

	*(*sntrup.PublicKey)(publicKey) = *pub
	*(*sntrup.PrivateKey)(secretKey) = *priv
	return nil
}

func (k *Sntrup4591761) EncapsulateInto(ciphertext, sharedSecret, publicKey []byte, rng io.Reader) error {
	if len(publicKey) != sntrup.PublicKeySize {
		return fmt.Errorf("invalid public key size: got %d, want %d", len(publicKey), sntrup.PublicKeySize)
	}
	if rng == nil {
		rng = rand.Reader
	}

	ct, ss, err := sntrup.Encapsulate(rng, (*sntrup.PublicKey)(publicKey))
	if err != nil {
		return fmt.Errorf("encapsulation failed: %w", err)
	}

	*(*sntrup.Ciphertext)(ciphertext) = *ct
	*(*sntrup.SharedKey)(sharedSecret) = *ss
	return nil
}

func (k *Sntrup4591761) DecapsulateInto(sharedSecret, ciphertext, secretKey []byte) error {
	if len(ciphertext) != sntrup.CiphertextSize {
		return fmt.Errorf("invalid ciphertext size: got %d, want %d", len(ciphertext), sntrup.CiphertextSize)
	}
	if len(secretKey) != sntrup.PrivateKeySize {
		return fmt.Errorf("invalid secret key size: got %d, want %d", len(secretKey), sntrup.PrivateKeySize)
	}

	// rc is 1 when the ciphertext verifies against the key.
	ss, rc := sntrup.Decapsulate((*sntrup.Ciphertext)(ciphertext), (*sntrup.PrivateKey)(secretKey))
	if rc != 1 {
		return fmt.Errorf("decapsulation failed with return code: %d", rc)
	}

	*(*sntrup.SharedKey)(sharedSecret) = *ss
	return nil
}

func (k *Sntrup4591761) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	publicKey = make([]byte, sntrup.PublicKeySize)
	secretKey = make([]byte, sntrup.PrivateKeySize)
	if err := k.GenerateKeyInto(publicKey, secretKey, rng); err != nil {
		return nil, nil, err
	}
	return publicKey, secretKey, nil
}

func (k *Sntrup4591761) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	ciphertext = make([]byte, sntrup.CiphertextSize)
	sharedSecret = make([]byte, sntrup.SharedKeySize)
	if err := k.EncapsulateInto(ciphertext, sharedSecret, publicKey, rng); err != nil {
		return nil, nil, err
	}
	return ciphertext, sharedSecret, nil
}

func (k *Sntrup4591761) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	sharedSecret = make([]byte, sntrup.SharedKeySize)
	if err := k.DecapsulateInto(sharedSecret, ciphertext, secretKey); err != nil {
		return nil, err
	}
	return sharedSecret, nil
}
