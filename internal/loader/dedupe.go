package loader

import (
	"log"
	"strings"

	"github.com/zeebo/xxh3"
)

// dupeGuard remembers a 64-bit hash of every data row seen so far and flags
// byte-identical repeats. Hashes only, not rows, so memory stays proportional
// to row count rather than row size. Disabled guards are nil-map no-ops.
type dupeGuard struct {
	seen    map[uint64]struct{}
	skipped int
}

func newDupeGuard(enabled bool) *dupeGuard {
	g := &dupeGuard{}
	if enabled {
		g.seen = make(map[uint64]struct{})
	}
	return g
}

// duplicate reports whether rec repeats an earlier row, recording it if not.
func (g *dupeGuard) duplicate(rec []string) bool {
	if g.seen == nil {
		return false
	}
	h := hashRecord(rec)
	if _, ok := g.seen[h]; ok {
		g.skipped++
		return true
	}
	g.seen[h] = struct{}{}
	return false
}

func (g *dupeGuard) report(path string) {
	if g.skipped > 0 {
		log.Printf("skipped %d duplicate rows in %s", g.skipped, path)
	}
}

// hashRecord hashes the fields joined with a unit separator, so ("ab","c")
// and ("a","bc") hash differently.
func hashRecord(rec []string) uint64 {
	var b strings.Builder
	for i, f := range rec {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(f)
	}
	return xxh3.HashString(b.String())
}
