package cen

import "time"

// Observation is an identifier seen by the radio layer, together with the
// local time it was observed.
type Observation struct {
	Identifier Identifier
	SeenAt     time.Time
}

// HasMatch reports whether any observation is explained by the key.
//
// It derives every identifier the key could have produced in windows starting
// before asOf, then checks the catalogue for a byte-equal observation whose
// timestamp falls inside the key's validity interval. Observations outside
// the interval never match, even when the identifier bytes are equal: a key
// cannot explain a contact that predates its issuance or postdates its
// expiry. Returns on the first hit.
func HasMatch(k Key, asOf time.Time, observations []Observation) bool {
	if k.Windows <= 0 || len(observations) == 0 {
		return false
	}

	from := k.ValidFrom()
	until := k.ValidUntil()

	candidates := make(map[[IdentifierLength]byte]struct{}, k.Windows)
	first := WindowIndex(from)
	asOfWindow := WindowIndex(asOf)
	for i := 0; i < k.Windows; i++ {
		w := first + uint64(i)
		if w > asOfWindow {
			break
		}
		var key [IdentifierLength]byte
		copy(key[:], Derive(k, w))
		candidates[key] = struct{}{}
	}

	for _, o := range observations {
		if o.SeenAt.Before(from) || !o.SeenAt.Before(until) {
			continue
		}
		if len(o.Identifier) != IdentifierLength {
			continue
		}
		var key [IdentifierLength]byte
		copy(key[:], o.Identifier)
		if _, ok := candidates[key]; ok {
			return true
		}
	}

	return false
}
