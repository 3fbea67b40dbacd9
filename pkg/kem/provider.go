package kem

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	// ErrUnsupported is returned when no implementation exists for an
	// algorithm or it has been disabled.
	ErrUnsupported = errors.New("algorithm not supported")
	// ErrBufferSize is returned when a caller's buffer does not match the
	// length the algorithm declares.
	ErrBufferSize = errors.New("buffer size mismatch")
	// ErrReleased is returned by operations on a released Context.
	ErrReleased = errors.New("context already released")
)

// Provider supplies KEM implementations by identifier.
type Provider interface {
	IsEnabled(name string) bool
	NewContext(name string) (Context, error)
}

// Context is an open handle on one algorithm. Operations write into
// caller-owned buffers whose sizes must equal Lengths.
type Context interface {
	Name() string
	Lengths() Lengths
	Keypair(publicKey, secretKey []byte) error
	Encapsulate(ciphertext, sharedSecret, publicKey []byte) error
	Decapsulate(sharedSecret, ciphertext, secretKey []byte) error
	Release()
}

// ------------------------ Registry ------------------------

// Registry is a Provider backed by in-process KEM implementations.
// Lookups are case-insensitive.
type Registry struct {
	kems     map[string]KEM
	names    []string
	disabled map[string]bool
	rng      io.Reader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kems:     make(map[string]KEM),
		disabled: make(map[string]bool),
		rng:      rand.Reader,
	}
}

// defaultAliases are other spellings of CIRCL scheme names: the unhyphenated
// ML-KEM and X-Wing names used by TLS code points and Go's crypto/mlkem, and
// the HPKE DH-KEM names from RFC 9180.
var defaultAliases = map[string][]string{
	"ML-KEM-512":                  {"MLKEM512"},
	"ML-KEM-768":                  {"MLKEM768"},
	"ML-KEM-1024":                 {"MLKEM1024"},
	"X-Wing":                      {"XWing"},
	"HPKE_KEM_X25519_HKDF_SHA256": {"DHKEM(X25519, HKDF-SHA256)"},
	"HPKE_KEM_X448_HKDF_SHA512":   {"DHKEM(X448, HKDF-SHA512)"},
	"HPKE_KEM_P256_HKDF_SHA256":   {"DHKEM(P-256, HKDF-SHA256)"},
	"HPKE_KEM_P384_HKDF_SHA384":   {"DHKEM(P-384, HKDF-SHA384)"},
	"HPKE_KEM_P521_HKDF_SHA512":   {"DHKEM(P-521, HKDF-SHA512)"},
}

// NewDefaultRegistry returns a registry holding every CIRCL scheme (with
// defaultAliases), sntrup4591761 and the X25519 baseline.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range AllCircl() {
		r.Register(k, defaultAliases[k.Name()]...)
	}
	r.Register(NewSntrup4591761())
	r.Register(NewX25519())
	return r
}

// Register adds k under its own name and any aliases. A later registration
// under the same name replaces the earlier one.
func (r *Registry) Register(k KEM, aliases ...string) {
	for _, name := range append([]string{k.Name()}, aliases...) {
		key := strings.ToLower(name)
		if _, ok := r.kems[key]; !ok {
			r.names = append(r.names, name)
		}
		r.kems[key] = k
	}
}

// Disable marks algorithms as unavailable, as if they had been compiled out.
// Disabling a name also disables its aliases.
func (r *Registry) Disable(names ...string) {
	for _, name := range names {
		r.disabled[r.canonical(name)] = true
	}
}

// Lookup returns the implementation registered under name, ignoring whether
// it is disabled.
func (r *Registry) Lookup(name string) (KEM, bool) {
	k, ok := r.kems[strings.ToLower(name)]
	return k, ok
}

// Names returns every registered identifier, sorted.
func (r *Registry) Names() []string {
	out := append([]string(nil), r.names...)
	sort.Strings(out)
	return out
}

// Describe returns the descriptor for name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	k, ok := r.Lookup(name)
	if !ok {
		return Descriptor{}, false
	}
	return Descriptor{
		Name:    name,
		Enabled: r.IsEnabled(name),
		Lengths: LengthsOf(k),
	}, true
}

func (r *Registry) IsEnabled(name string) bool {
	_, ok := r.Lookup(name)
	return ok && !r.disabled[r.canonical(name)]
}

// canonical is the lower-cased implementation name behind name, or name
// itself when nothing is registered under it.
func (r *Registry) canonical(name string) string {
	if k, ok := r.Lookup(name); ok {
		return strings.ToLower(k.Name())
	}
	return strings.ToLower(name)
}

func (r *Registry) NewContext(name string) (Context, error) {
	if !r.IsEnabled(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	k, _ := r.Lookup(name)
	c := &kemContext{kem: k, lengths: LengthsOf(k), rng: r.rng}
	c.direct, _ = k.(BufferKEM)
	return c, nil
}

// ------------------------ Context ------------------------

// kemContext writes results into the caller's buffers. Adapters that
// implement BufferKEM do so themselves; for the rest the returned slices are
// copied in.
type kemContext struct {
	kem      KEM
	direct   BufferKEM
	lengths  Lengths
	rng      io.Reader
	released bool
}

func (c *kemContext) Name() string {
	return c.kem.Name()
}

func (c *kemContext) Lengths() Lengths {
	return c.lengths
}

func (c *kemContext) Keypair(publicKey, secretKey []byte) error {
	if c.released {
		return ErrReleased
	}
	if err := checkSize("public key", publicKey, c.lengths.PublicKey); err != nil {
		return err
	}
	if err := checkSize("secret key", secretKey, c.lengths.SecretKey); err != nil {
		return err
	}

	if c.direct != nil {
		return c.direct.GenerateKeyInto(publicKey, secretKey, c.rng)
	}
	pk, sk, err := c.kem.GenerateKey(c.rng)
	if err != nil {
		return err
	}
	return fill(fill(nil, "public key", publicKey, pk), "secret key", secretKey, sk)
}

func (c *kemContext) Encapsulate(ciphertext, sharedSecret, publicKey []byte) error {
	if c.released {
		return ErrReleased
	}
	if err := checkSize("ciphertext", ciphertext, c.lengths.Ciphertext); err != nil {
		return err
	}
	if err := checkSize("shared secret", sharedSecret, c.lengths.SharedSecret); err != nil {
		return err
	}

	if c.direct != nil {
		return c.direct.EncapsulateInto(ciphertext, sharedSecret, publicKey, c.rng)
	}
	ct, ss, err := c.kem.Encapsulate(publicKey, c.rng)
	if err != nil {
		return err
	}
	return fill(fill(nil, "ciphertext", ciphertext, ct), "shared secret", sharedSecret, ss)
}

func (c *kemContext) Decapsulate(sharedSecret, ciphertext, secretKey []byte) error {
	if c.released {
		return ErrReleased
	}
	if err := checkSize("shared secret", sharedSecret, c.lengths.SharedSecret); err != nil {
		return err
	}

	if c.direct != nil {
		return c.direct.DecapsulateInto(sharedSecret, ciphertext, secretKey)
	}
	ss, err := c.kem.Decapsulate(ciphertext, secretKey)
	if err != nil {
		return err
	}
	return fill(nil, "shared secret", sharedSecret, ss)
}

func (c *kemContext) Release() {
	c.released = true
}

func checkSize(what string, buf []byte, want int) error {
	if len(buf) != want {
		return fmt.Errorf("%s: got %d bytes, want %d: %w", what, len(buf), want, ErrBufferSize)
	}
	return nil
}

// fill copies src into dst unless an earlier step already failed.
func fill(prev error, what string, dst, src []byte) error {
	if prev != nil {
		return prev
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%s: implementation produced %d bytes, want %d: %w", what, len(src), len(dst), ErrBufferSize)
	}
	copy(dst, src)
	return nil
}
