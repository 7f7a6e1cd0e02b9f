package assert

import "github.com/oomph-ac/clicktest/oerror"

// IsTrue panics with an error formatted from message and args if ok is false. It guards invariants that
// can only break through a programming error.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(oerror.New(message, args...))
	}
}
