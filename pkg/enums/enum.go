package enums

import (
	"fmt"
	"slices"
)

// known is the closed value set of one string enum.
type known[T ~string] []T

func (k known[T]) has(v T) bool {
	return slices.Contains(k, v)
}

// parse returns value as T when it is in the set. kind names the enum in the
// error, e.g. "settlement status".
func (k known[T]) parse(kind, value string) (T, error) {
	if v := T(value); k.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
