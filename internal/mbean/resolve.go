package mbean

import (
	"math"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

// Resolve picks the overload whose parameter count is closest to, without
// exceeding, argCount. The returned shortfall is argCount minus the chosen
// overload's arity. On ties the earliest candidate wins.
func Resolve(name string, argCount int, candidates []OperationDescriptor) (OperationDescriptor, int, error) {
	best := -1
	shortfall := math.MaxInt
	for i, c := range candidates {
		arity := len(c.Parameters)
		if arity <= argCount && argCount-arity < shortfall {
			best = i
			shortfall = argCount - arity
		}
	}
	if best < 0 {
		return OperationDescriptor{}, 0, errors.NoEligibleOverload(name, argCount)
	}
	return candidates[best], shortfall, nil
}
