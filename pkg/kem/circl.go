package kem

import (
	"encoding"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/schemes"
)

// Key and scheme methods some CIRCL packages (ML-KEM, Kyber, FrodoKEM, X-Wing)
// expose beyond kem.Scheme. They write into caller buffers and panic on a
// size mismatch.
type (
	packer interface {
		Pack(buf []byte)
	}
	encapsulatorTo interface {
		EncapsulateTo(ct, ss, seed []byte)
	}
	decapsulatorTo interface {
		DecapsulateTo(ss, ct []byte)
	}
)

// Circl adapts any scheme from Cloudflare's CIRCL library (ML-KEM, Kyber,
// FrodoKEM, X-Wing, hybrids, HPKE DH-KEMs). Schemes with in-place methods
// write straight into the caller's buffers; the rest are marshalled and
// copied.
type Circl struct {
	scheme kem.Scheme
}

// NewCircl wraps a CIRCL scheme.
func NewCircl(scheme kem.Scheme) *Circl {
	return &Circl{scheme: scheme}
}

// CirclByName looks up a CIRCL scheme by name. It returns nil if CIRCL does
// not provide the scheme.
func CirclByName(name string) *Circl {
	s := schemes.ByName(name)
	if s == nil {
		return nil
	}
	return NewCircl(s)
}

// AllCircl returns an adapter for every scheme CIRCL ships.
func AllCircl() []*Circl {
	all := schemes.All()
	out := make([]*Circl, 0, len(all))
	for _, s := range all {
		out = append(out, NewCircl(s))
	}
	return out
}

func (k *Circl) Name() string          { return k.scheme.Name() }
func (k *Circl) PublicKeySize() int    { return k.scheme.PublicKeySize() }
func (k *Circl) SecretKeySize() int    { return k.scheme.PrivateKeySize() }
func (k *Circl) CiphertextSize() int   { return k.scheme.CiphertextSize() }
func (k *Circl) SharedSecretSize() int { return k.scheme.SharedKeySize() }

// GenerateKeyInto draws a fresh keypair. CIRCL reads crypto/rand itself, so
// rng is unused.
func (k *Circl) GenerateKeyInto(publicKey, secretKey []byte, rng io.Reader) (err error) {
	defer k.recoverPanic("key generation", &err)

	pk, sk, err := k.scheme.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("%s key generation failed: %w", k.Name(), err)
	}
	if err := packInto(publicKey, pk); err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	if err := packInto(secretKey, sk); err != nil {
		return fmt.Errorf("secret key: %w", err)
	}
	return nil
}

func (k *Circl) EncapsulateInto(ciphertext, sharedSecret, publicKey []byte, rng io.Reader) (err error) {
	if len(publicKey) != k.PublicKeySize() {
		return fmt.Errorf("invalid public key size: got %d, want %d", len(publicKey), k.PublicKeySize())
	}
	defer k.recoverPanic("encapsulation", &err)

	pk, err := k.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("failed to unmarshal public key: %w", err)
	}

	if enc, ok := pk.(encapsulatorTo); ok {
		enc.EncapsulateTo(ciphertext, sharedSecret, nil)
		return nil
	}

	ct, ss, err := k.scheme.Encapsulate(pk)
	if err != nil {
		return fmt.Errorf("encapsulation failed: %w", err)
	}
	if err := copyExact(ciphertext, ct); err != nil {
		return fmt.Errorf("ciphertext: %w", err)
	}
	return copyExact(sharedSecret, ss)
}

func (k *Circl) DecapsulateInto(sharedSecret, ciphertext, secretKey []byte) (err error) {
	if len(ciphertext) != k.CiphertextSize() {
		return fmt.Errorf("invalid ciphertext size: got %d, want %d", len(ciphertext), k.CiphertextSize())
	}
	if len(secretKey) != k.SecretKeySize() {
		return fmt.Errorf("invalid secret key size: got %d, want %d", len(secretKey), k.SecretKeySize())
	}
	defer k.recoverPanic("decapsulation", &err)

	sk, err := k.scheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return fmt.Errorf("failed to unmarshal secret key: %w", err)
	}

	if dec, ok := sk.(decapsulatorTo); ok {
		dec.DecapsulateTo(sharedSecret, ciphertext)
		return nil
	}

	ss, err := k.scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return fmt.Errorf("decapsulation failed: %w", err)
	}
	return copyExact(sharedSecret, ss)
}

func (k *Circl) GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error) {
	publicKey = make([]byte, k.PublicKeySize())
	secretKey = make([]byte, k.SecretKeySize())
	if err := k.GenerateKeyInto(publicKey, secretKey, rng); err != nil {
		return nil, nil, err
	}
	return publicKey, secretKey, nil
}

func (k *Circl) Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error) {
	ciphertext = make([]byte, k.CiphertextSize())
	sharedSecret = make([]byte, k.SharedSecretSize())
	if err := k.EncapsulateInto(ciphertext, sharedSecret, publicKey, rng); err != nil {
		return nil, nil, err
	}
	return ciphertext, sharedSecret, nil
}

func (k *Circl) Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error) {
	sharedSecret = make([]byte, k.SharedSecretSize())
	if err := k.DecapsulateInto(sharedSecret, ciphertext, secretKey); err != nil {
		return nil, err
	}
	return sharedSecret, nil
}

// recoverPanic turns a panic into an error. Some schemes (X-Wing) panic on
// malformed input, and the in-place methods panic on a wrong buffer size.
func (k *Circl) recoverPanic(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s %s panic: %v", k.Name(), op, r)
	}
}

func packInto(dst []byte, key encoding.BinaryMarshaler) error {
	if p, ok := key.(packer); ok {
		p.Pack(dst)
		return nil
	}
	b, err := key.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return copyExact(dst, b)
}

func copyExact(dst, src []byte) error {
	if len(src) != len(dst) {
		return fmt.Errorf("implementation produced %d bytes, want %d: %w", len(src), len(dst), ErrBufferSize)
	}
	copy(dst, src)
	return nil
}
