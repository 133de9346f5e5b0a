package encoder

import (
	crand "crypto/rand"
	"math/rand/v2"
	"strings"
	"sync"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// AliasLength is the length of generated aliases: 62^6 possible values
const AliasLength = 6

// Source yields uniformly distributed integers in [0, n)
type Source interface {
	IntN(n int) int
}

// lockedSource makes a *rand.Rand safe for concurrent use
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// NewSource returns a concurrency-safe source seeded from crypto/rand
func NewSource() Source {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("encoder: failed to seed random source: " + err.Error())
	}
	return &lockedSource{r: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededSource returns a deterministic source, mainly for tests
func NewSeededSource(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generator draws random aliases from the base62 alphabet
type Generator struct {
	src    Source
	length int
}

// NewGenerator creates a generator producing AliasLength-character aliases
func NewGenerator(src Source) *Generator {
	return &Generator{src: src, length: AliasLength}
}

// Next draws every position independently and uniformly from the alphabet
func (g *Generator) Next() string {
	var sb strings.Builder
	sb.Grow(g.length)
	for i := 0; i < g.length; i++ {
		sb.WriteByte(alphabet[g.src.IntN(len(alphabet))])
	}
	return sb.String()
}

// InAlphabet reports whether s only uses base62 characters
func InAlphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
