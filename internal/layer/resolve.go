package layer

import (
	"strings"

	"golang.org/x/text/cases"
)

// Resolution is the outcome of matching a name fragment against the
// available layers.
type Resolution struct {
	// Layer is the first matching layer, nil when nothing matched.
	Layer Layer
	// Candidates lists the names of every matching layer in provider order.
	Candidates []string
}

// Found reports whether some layer matched.
func (r Resolution) Found() bool { return r.Layer != nil }

// Ambiguous reports whether more than one layer matched. The first match is
// still used; which one that is depends on the provider's layer order.
func (r Resolution) Ambiguous() bool { return len(r.Candidates) > 1 }

// Matches reports whether name contains fragment, ignoring case. An empty
// fragment matches nothing.
func Matches(name, fragment string) bool {
	if fragment == "" {
		return false
	}
	// A Caser keeps state between calls and must not be shared across
	// goroutines.
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(fragment))
}

// Resolve finds the layers whose name contains fragment.
func Resolve(layers []Layer, fragment string) Resolution {
	var r Resolution
	for _, l := range layers {
		if !Matches(l.Name(), fragment) {
			continue
		}
		if r.Layer == nil {
			r.Layer = l
		}
		r.Candidates = append(r.Candidates, l.Name())
	}
	return r
}
