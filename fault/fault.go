// Package fault defines the error taxonomy shared by all computation stages.
//
// Each kind is a sentinel error value; call sites attach context with
// github.com/pkg/errors wrapping and callers classify with errors.Is through
// Kind. Recoverable kinds (Eclipse, and Convergence or MeshMalformed raised
// during spot insertion) are logged and degrade the computation; every other
// kind aborts the curve.
package fault

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// InvalidInput marks out-of-range or inconsistent user parameters.
	InvalidInput = stderrors.New("invalid input")

	// NonPhysical marks configurations refused by the morphology classifier.
	NonPhysical = stderrors.New("non-physical system")

	// Convergence marks an iteration cap reached in a numerical solve.
	Convergence = stderrors.New("solver did not converge")

	// MeshMalformed marks a non-manifold or empty triangulation result.
	MeshMalformed = stderrors.New("malformed surface mesh")

	// OutOfBound marks a table lookup outside atmosphere or limb-darkening
	// coverage beyond the permitted extrapolation tolerance.
	OutOfBound = stderrors.New("lookup out of table bounds")

	// Eclipse marks degenerate clipper input; the face in question is
	// treated as hidden and the computation continues.
	Eclipse = stderrors.New("degenerate eclipse geometry")
)

// Wrap attaches a kind and a formatted message to an error chain.
func Wrap(kind error, format string, args ...interface{}) error {
	return errors.WithMessagef(kind, format, args...)
}

// Kind reports whether err belongs to the given taxonomy kind.
func Kind(err, kind error) bool {
	return errors.Is(err, kind)
}
