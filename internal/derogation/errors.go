package derogation

import "github.com/rotisserie/eris"

var (
	// ErrInvalidInput marks a request rejected before any geometry work:
	// non-finite coordinates, non-positive radius, inconsistent settings.
	ErrInvalidInput = eris.New("derogation: invalid input")

	// ErrLayerNotFound marks a zone category or precedent fragment that no
	// available layer matches. It never aborts a run.
	ErrLayerNotFound = eris.New("derogation: layer not found")

	// ErrGeometry marks a feature whose intersection or area could not be
	// computed. The feature is skipped.
	ErrGeometry = eris.New("derogation: geometry operation failed")

	// ErrPanic marks a run component that panicked outside a feature guard.
	ErrPanic = eris.New("derogation: component panicked")
)
