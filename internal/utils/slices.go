package utils

import (
	"errors"
	"fmt"
)

var ErrCast = errors.New("unable to cast")

// CastToSlice converts a decoded JSON array into a typed slice.
func CastToSlice[T any](values any) ([]T, error) {
	interfaceList, ok := values.([]any)
	if !ok {
		return nil, fmt.Errorf("%w input to []any", ErrCast)
	}

	list := make([]T, len(interfaceList))

	for i, v := range interfaceList {
		list[i], ok = v.(T)
		if !ok {
			return nil, fmt.Errorf("%w element", ErrCast)
		}
	}

	return list, nil
}
