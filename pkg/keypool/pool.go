// Package keypool manages a pool of Torn API keys with round-robin and
// random balancing.
package keypool

import (
	"errors"
	"math/rand"
	"sync/atomic"
)

// ErrNoCredentials is returned when a pool is constructed without any keys.
var ErrNoCredentials = errors.New("no API keys configured")

// Strategy selects how keys are picked from the pool.
type Strategy string

const (
	// RoundRobin cycles through keys in insertion order.
	RoundRobin Strategy = "round_robin"

	// Random picks keys pseudo-randomly. Selection is for load
	// distribution, not security.
	Random Strategy = "random"
)

// Credential is a single Torn API key. The full value is used as an
// identifier internally and must never be logged; use Mask for display.
type Credential string

// Mask returns the display form of a credential: the first 5 characters
// followed by "...". Credentials of 5 characters or fewer are returned
// unchanged.
func (c Credential) Mask() string {
	if len(c) > 5 {
		return string(c[:5]) + "..."
	}
	return string(c)
}

// Pool holds an ordered, immutable set of credentials plus a rotation
// cursor. Safe for concurrent use: the cursor is advanced atomically.
type Pool struct {
	keys     []Credential
	strategy Strategy
	cursor   atomic.Uint64
}

// New creates a pool from the given keys. Fails with ErrNoCredentials if
// the list is empty.
func New(keys []string, strategy Strategy) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}

	creds := make([]Credential, len(keys))
	for i, k := range keys {
		creds[i] = Credential(k)
	}

	return &Pool{
		keys:     creds,
		strategy: strategy,
	}, nil
}

// Next returns the next credential according to the balancing strategy.
// RoundRobin visits keys cyclically in insertion order; the cursor is
// never reset. Under heavy concurrency two callers may receive the same
// key, which is acceptable; starvation is not.
func (p *Pool) Next() Credential {
	switch p.strategy {
	case Random:
		return p.keys[rand.Intn(len(p.keys))]
	default:
		idx := p.cursor.Add(1) - 1
		return p.keys[idx%uint64(len(p.keys))]
	}
}

// At returns the credential at the given position, or false if the index
// is out of range. Positional access does not advance the rotation cursor.
func (p *Pool) At(i int) (Credential, bool) {
	if i < 0 || i >= len(p.keys) {
		return "", false
	}
	return p.keys[i], true
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Masked returns the display form of every credential in insertion order.
func (p *Pool) Masked() []string {
	masked := make([]string, len(p.keys))
	for i, k := range p.keys {
		masked[i] = k.Mask()
	}
	return masked
}
