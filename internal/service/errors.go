package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Typed failures surfaced to the transport layer.
var (
	ErrDroneNotFound = errors.New("drone not found")
	ErrZoneNotFound  = errors.New("zone not found")
)

// ValidationError names every offending input field. It never leaves
// partial state behind: validation runs before any store mutation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// AsValidation unwraps err into a ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
