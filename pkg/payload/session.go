package payload

import "math/rand/v2"

// NewSessionSeed produces a session-level RNG seed recorded on findings for
// reproducibility. Generate/Mutate above are pure functions of (tag,
// constraints)/(seed value, tag, intensity) and do not draw on this seed —
// the one pseudo-random value they produce, the CSRF token, comes from a
// fixed-seed PCG, so the multiset they return is already deterministic — so
// the seed exists purely as the provenance value the orchestrator stamps
// onto emitted findings.
func NewSessionSeed() uint64 {
	return rand.Uint64()
}
