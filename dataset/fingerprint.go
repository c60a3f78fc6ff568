package dataset

import "crypto/sha256"

// Fingerprint is the content-address of a row: a SHA-256 digest of the
// cleaned code text. Two rows are the same sample iff their fingerprints
// are equal; no other row field participates.
type Fingerprint [sha256.Size]byte

// Fingerprint computes the row's content fingerprint.
func (r Row) Fingerprint() Fingerprint {
	return sha256.Sum256([]byte(CleanCode(r.ProcessedFunc)))
}

// Dedup returns a pool retaining the first occurrence of each distinct
// fingerprint, in original order.
func Dedup(p Pool) Pool {
	seen := make(map[Fingerprint]bool, len(p))
	out := make(Pool, 0, len(p))
	for _, r := range p {
		fp := r.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, r)
	}
	return out
}

// RemoveOverlap drops every candidate row whose fingerprint appears in the
// reference pool. The reference pool is never modified; retained candidate
// rows keep their original order.
func RemoveOverlap(reference, candidates Pool) Pool {
	refSet := make(map[Fingerprint]bool, len(reference))
	for _, r := range reference {
		refSet[r.Fingerprint()] = true
	}

	out := make(Pool, 0, len(candidates))
	for _, r := range candidates {
		if refSet[r.Fingerprint()] {
			continue
		}
		out = append(out, r)
	}
	return out
}
