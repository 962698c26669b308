package location

import (
	"context"
	"errors"

	"github.com/Qalifah/voyage-tracker/geo"
)

// Resolver turns a free-text port name into a coordinate. Implementations
// return ErrUnknown when the name can't be located.
type Resolver interface {
	Resolve(ctx context.Context, name string) (geo.Coordinate, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as
// resolvers.
type ResolverFunc func(ctx context.Context, name string) (geo.Coordinate, error)

// Resolve calls f(ctx, name).
func (f ResolverFunc) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	return f(ctx, name)
}

type repositoryResolver struct {
	locations Repository
}

// NewRepositoryResolver returns a resolver answering from the port catalog.
// The name is tried as a UN/LOCODE first and then as a port name.
func NewRepositoryResolver(locations Repository) Resolver {
	return &repositoryResolver{locations: locations}
}

func (r *repositoryResolver) Resolve(_ context.Context, name string) (geo.Coordinate, error) {
	if code, ok := ParseUNLcode(name); ok {
		if l, err := r.locations.Find(code); err == nil && l.Resolved() {
			return *l.Coordinate, nil
		}
	}
	l, err := r.locations.FindByName(name)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if !l.Resolved() {
		return geo.Coordinate{}, ErrUnknown
	}
	return *l.Coordinate, nil
}

type chain []Resolver

// Chain returns a resolver that asks each resolver in turn and returns the
// first coordinate found. If all of them fail the last error is returned.
func Chain(resolvers ...Resolver) Resolver {
	return chain(resolvers)
}

func (c chain) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	err := ErrUnknown
	for _, r := range c {
		coord, rerr := r.Resolve(ctx, name)
		if rerr == nil {
			return coord, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return geo.Coordinate{}, ctxErr
		}
		err = rerr
	}
	return geo.Coordinate{}, err
}

// IsNotFound reports whether err means the location does not exist, as
// opposed to the resolver being unavailable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknown)
}
