package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source that does not hold the secret.
var ErrNotFound = errors.New("secret not found")

// Source looks up secret values by name.
type Source interface {
	// Lookup returns the value of name, or an error wrapping ErrNotFound.
	Lookup(ctx context.Context, name string) (string, error)

	// Name identifies the source in logs ("env", "file").
	Name() string
}

// Refresher is implemented by sources that cache values and can drop them.
type Refresher interface {
	Refresh()
}
