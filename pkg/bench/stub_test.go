package bench

import (
	"errors"
	"fmt"

	"kembench/pkg/kem"
)

var errInjected = errors.New("injected failure")

// stepClock only advances when a stub operation runs, so every elapsed
// reading equals that operation's configured delta.
type stepClock struct {
	now uint64
}

func (c *stepClock) Now() uint64 {
	return c.now
}

// stubAlgorithm describes one fake algorithm.
type stubAlgorithm struct {
	lengths kem.Lengths
	deltas  map[Op]uint64
	// failOn maps an operation to the iterations (0-based) on which it fails.
	failOn map[Op]map[int]bool
	// corrupt makes decapsulation return a different shared secret.
	corrupt bool
}

type stubProvider struct {
	clock      *stepClock
	algorithms map[string]*stubAlgorithm
	opened     map[string]int
	released   map[string]int
}

func newStubProvider(clock *stepClock) *stubProvider {
	return &stubProvider{
		clock:      clock,
		algorithms: make(map[string]*stubAlgorithm),
		opened:     make(map[string]int),
		released:   make(map[string]int),
	}
}

func fixedAlgorithm() *stubAlgorithm {
	return &stubAlgorithm{
		lengths: kem.Lengths{PublicKey: 8, SecretKey: 16, Ciphertext: 12, SharedSecret: 4},
		deltas:  map[Op]uint64{OpKeygen: 100, OpEncaps: 200, OpDecaps: 300},
		failOn:  map[Op]map[int]bool{},
	}
}

func (p *stubProvider) add(name string, alg *stubAlgorithm) *stubAlgorithm {
	p.algorithms[name] = alg
	return alg
}

func (p *stubProvider) IsEnabled(name string) bool {
	_, ok := p.algorithms[name]
	return ok
}

func (p *stubProvider) NewContext(name string) (kem.Context, error) {
	alg, ok := p.algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, kem.ErrUnsupported)
	}
	p.opened[name]++
	return &stubContext{provider: p, name: name, alg: alg}, nil
}

// stubContext counts rounds by keygen calls; the runner starts every
// iteration with exactly one.
type stubContext struct {
	provider *stubProvider
	name     string
	alg      *stubAlgorithm
	started  bool
	round    int
}

func (c *stubContext) Name() string { return c.name }
func (c *stubContext) Lengths() kem.Lengths { return c.alg.lengths }

func (c *stubContext) run(op Op, bufs ...[]byte) error {
	c.provider.clock.now += c.alg.deltas[op]
	if c.alg.failOn[op][c.round] {
		return errInjected
	}
	for _, b := range bufs {
		for i := range b {
			b[i] = byte(c.round + 1)
		}
	}
	return nil
}

func (c *stubContext) Keypair(publicKey, secretKey []byte) error {
	if c.started {
		c.round++
	}
	c.started = true
	return c.run(OpKeygen, publicKey, secretKey)
}

func (c *stubContext) Encapsulate(ciphertext, sharedSecret, publicKey []byte) error {
	return c.run(OpEncaps, ciphertext, sharedSecret)
}

func (c *stubContext) Decapsulate(sharedSecret, ciphertext, secretKey []byte) error {
	if err := c.run(OpDecaps, sharedSecret); err != nil {
		return err
	}
	if c.alg.corrupt {
		sharedSecret[0] ^= 0xff
	}
	return nil
}

func (c *stubContext) Release() {
	c.provider.released[c.name]++
}

// memorySink records rows. When failAfter is set, the failAfter-th Write
// call (1-based) and every later one return writeErr.
type memorySink struct {
	rows      []Row
	flushes   int
	writes    int
	failAfter int
	writeErr  error
}

func (s *memorySink) Write(rows []Row) error {
	s.writes++
	if s.failAfter > 0 && s.writes >= s.failAfter {
		return s.writeErr
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memorySink) Flush() error {
	s.flushes++
	return nil
}

func rowsFor(rows []Row, algorithm string) []Row {
	var out []Row
	for _, r := range rows {
		if r.Algorithm == algorithm {
			out = append(out, r)
		}
	}
	return out
}
