package kem

import "io"

// KEM is the interface for Key Encapsulation Mechanisms
type KEM interface {
	Name() string
	PublicKeySize() int
	SecretKeySize() int
	CiphertextSize() int
	SharedSecretSize() int
	GenerateKey(rng io.Reader) (publicKey, secretKey []byte, err error)
	Encapsulate(publicKey []byte, rng io.Reader) (ciphertext, sharedSecret []byte, err error)
	Decapsulate(ciphertext, secretKey []byte) (sharedSecret []byte, err error)
}

// BufferKEM is implemented by adapters that write their outputs straight into
// caller-owned buffers. Output buffer lengths are checked by the caller and
// must match the sizes the KEM declares.
type BufferKEM interface {
	GenerateKeyInto(publicKey, secretKey []byte, rng io.Reader) error
	EncapsulateInto(ciphertext, sharedSecret, publicKey []byte, rng io.Reader) error
	DecapsulateInto(sharedSecret, ciphertext, secretKey []byte) error
}

// Lengths holds the fixed buffer sizes an algorithm declares.
type Lengths struct {
	PublicKey    int
	SecretKey    int
	Ciphertext   int
	SharedSecret int
}

// LengthsOf reads the declared buffer sizes of k.
func LengthsOf(k KEM) Lengths {
	return Lengths{
		PublicKey:    k.PublicKeySize(),
		SecretKey:    k.SecretKeySize(),
		Ciphertext:   k.CiphertextSize(),
		SharedSecret: k.SharedSecretSize(),
	}
}

// Descriptor describes one algorithm known to a Registry.
type Descriptor struct {
	Name    string
	Enabled bool
	Lengths Lengths
}

// Buffers are the per-iteration output buffers for one keygen/encaps/decaps
// round. SharedSecretEnc is written by encapsulation, SharedSecretDec by
// decapsulation.
type Buffers struct {
	PublicKey       []byte
	SecretKey       []byte
	Ciphertext      []byte
	SharedSecretEnc []byte
	SharedSecretDec []byte
}

// NewBuffers allocates zeroed buffers sized by l.
func NewBuffers(l Lengths) *Buffers {
	return &Buffers{
		PublicKey:       make([]byte, l.PublicKey),
		SecretKey:       make([]byte, l.SecretKey),
		Ciphertext:      make([]byte, l.Ciphertext),
		SharedSecretEnc: make([]byte, l.SharedSecret),
		SharedSecretDec: make([]byte, l.SharedSecret),
	}
}
