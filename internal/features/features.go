// Package features holds feature flags: a process-wide default set from
// configuration, adjusted per request by the X-Features header or the
// "features" query parameter. A "no-" prefix switches a flag off.
package features

import (
	"context"
	"net/http"
	"slices"
	"strings"

	dstrings "discovery/pkg/platform/strings"
)

// Flag names a feature.
type Flag string

const (
	// OnsiteEdd enables electronic delivery for on-site items.
	OnsiteEdd Flag = "on-site-edd"
	// HidePartnerItems removes partner-owned items from responses.
	HidePartnerItems Flag = "hide-partner-items"
)

const (
	HeaderName = "X-Features"
	QueryParam = "features"

	disablePrefix = "no-"
)

// Check reports whether a flag is on. The resolution engine only sees this.
type Check func(Flag) bool

// Set is an immutable set of enabled flags.
type Set struct {
	enabled map[Flag]struct{}
}

// Parse enables every flag in names. Unknown names are kept; they are
// harmless because nothing checks them.
func Parse(names []string) Set {
	return Set{}.With(names)
}

// With applies overrides: "x" enables x and "no-x" disables it.
func (s Set) With(overrides []string) Set {
	next := make(map[Flag]struct{}, len(s.enabled)+len(overrides))
	for f := range s.enabled {
		next[f] = struct{}{}
	}
	for _, raw := range dstrings.DedupeAndTrimLower(overrides) {
		if name, ok := strings.CutPrefix(raw, disablePrefix); ok {
			delete(next, Flag(name))
			continue
		}
		next[Flag(raw)] = struct{}{}
	}
	return Set{enabled: next}
}

func (s Set) Enabled(f Flag) bool {
	_, ok := s.enabled[f]
	return ok
}

func (s Set) Check() Check {
	return s.Enabled
}

// List returns the enabled flags sorted.
func (s Set) List() []string {
	out := make([]string, 0, len(s.enabled))
	for f := range s.enabled {
		out = append(out, string(f))
	}
	slices.Sort(out)
	return out
}

// FromRequest applies the request's overrides to base.
func FromRequest(r *http.Request, base Set) Set {
	var overrides []string
	overrides = append(overrides, dstrings.SplitList(r.Header.Get(HeaderName))...)
	overrides = append(overrides, dstrings.SplitList(r.URL.Query().Get(QueryParam))...)
	if len(overrides) == 0 {
		return base
	}
	return base.With(overrides)
}

type contextKey struct{}

func WithSet(ctx context.Context, s Set) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's flag set, or an empty set.
func FromContext(ctx context.Context) Set {
	if s, ok := ctx.Value(contextKey{}).(Set); ok {
		return s
	}
	return Set{}
}

// Middleware resolves the per-request flag set and stores it in the context.
func Middleware(base Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithSet(r.Context(), FromRequest(r, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
