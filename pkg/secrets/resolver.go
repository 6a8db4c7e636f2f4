package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"
)

var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return refPattern.MatchString(s)
}

type cached struct {
	value   string
	expires time.Time
}

// Resolver expands secret references against an ordered chain of sources.
// Resolved values are cached for ttl; a zero ttl disables the cache.
type Resolver struct {
	sources []Source
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]cached
}

// NewResolver creates a resolver over sources, consulted in order.
func NewResolver(sources []Source, ttl time.Duration) *Resolver {
	return &Resolver{
		sources: sources,
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.Default().With("component", "secrets"),
		cache:   make(map[string]cached),
	}
}

// Lookup returns the value of name from the first source holding it.
func (r *Resolver) Lookup(ctx context.Context, name string) (string, error) {
	if v, ok := r.cached(name); ok {
		return v, nil
	}

	var errs []error
	for _, src := range r.sources {
		v, err := src.Lookup(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "source", src.Name(), "name", redact(name))
			r.store(name, v)
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("secret %q: %w", name, errors.Join(errs...))
	}
	return "", fmt.Errorf("secret %q: %w", name, ErrNotFound)
}

// Expand replaces every ${secret:name} reference in input. Input without
// references is returned unchanged. Any unresolved reference fails the
// whole expansion and no partial value is returned.
func (r *Resolver) Expand(ctx context.Context, input string) (string, error) {
	if !HasReference(input) {
		return input, nil
	}
	var errs []error
	out := refPattern.ReplaceAllStringFunc(input, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		v, err := r.Lookup(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ref
		}
		return v
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// ExpandFields expands every field in place. Keys name the fields in error
// messages; fields that fail keep their reference.
func (r *Resolver) ExpandFields(ctx context.Context, fields map[string]*string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		dst := fields[k]
		if dst == nil || !HasReference(*dst) {
			continue
		}
		v, err := r.Expand(ctx, *dst)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		*dst = v
	}
	return errors.Join(errs...)
}

// Refresh clears the resolver cache and every refreshable source.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	r.cache = make(map[string]cached)
	r.mu.Unlock()
	for _, src := range r.sources {
		if rf, ok := src.(Refresher); ok {
			rf.Refresh()
		}
	}
}

func (r *Resolver) cached(name string) (string, bool) {
	if r.ttl <= 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[name]
	if !ok || r.now().After(c.expires) {
		return "", false
	}
	return c.value, true
}

func (r *Resolver) store(name, value string) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[name] = cached{value: value, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
}

// redact keeps the first and last two characters of a secret name.
func redact(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
