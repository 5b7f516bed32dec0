package credential

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/voyagerkit/core/cache"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

// DefaultCapacity is the number of principals a Jar keeps in memory.
const DefaultCapacity = 10

// Jar caches credential sets per principal in front of a Store.
// All operations on one principal are applied in call order; different
// principals never wait for each other.
type Jar struct {
	store  Store
	cache  *cache.FlightCache[string, Set]
	now    func() time.Time
	logger *slog.Logger
}

type jarOptions struct {
	capacity int
	now      func() time.Time
	logger   *slog.Logger
}

// JarOption configures a Jar.
type JarOption func(*jarOptions)

// WithCapacity bounds the number of principals kept in memory.
func WithCapacity(n int) JarOption {
	return func(o *jarOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) JarOption {
	return func(o *jarOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) JarOption {
	return func(o *jarOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewJar creates a Jar over store. A nil store behaves like EphemeralStore.
func NewJar(store Store, opts ...JarOption) *Jar {
	o := jarOptions{
		capacity: DefaultCapacity,
		now:      time.Now,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = EphemeralStore{}
	}

	return &Jar{
		store:  store,
		cache:  cache.NewFlightCache[string, Set](o.capacity),
		now:    o.now,
		logger: o.logger.With(logger.Component("credential.jar")),
	}
}

// Get returns the current set for principal, loading it from the store on
// first use. An expired set is replaced by the empty set, which is persisted.
func (j *Jar) Get(ctx context.Context, principal string) (Set, error) {
	s, err := j.cache.Update(ctx, principal, j.loader(principal), func(ctx context.Context, current Set) (Set, error) {
		if !current.Expired(j.now()) {
			return current, nil
		}
		j.logger.InfoContext(ctx, "credentials expired, resetting", logger.Principal(principal))
		if err := j.write(ctx, principal, Set{}); err != nil {
			return current, err
		}
		return Set{}, nil
	}).Await()
	if err != nil {
		return Set{}, err
	}
	return s, nil
}

// Add merges entries over the current set for principal and persists the
// result. An expired current set is treated as empty. It returns the merged set.
func (j *Jar) Add(ctx context.Context, principal string, entries Set) (Set, error) {
	s, err := j.cache.Update(ctx, principal, j.loader(principal), func(ctx context.Context, current Set) (Set, error) {
		if current.Expired(j.now()) {
			current = Set{}
		}
		merged := Combine(current, entries)
		if err := j.write(ctx, principal, merged); err != nil {
			return current, err
		}
		return merged, nil
	}).Await()
	if err != nil {
		return Set{}, err
	}
	return s, nil
}

// Clear replaces the set for principal with the empty set and persists it.
func (j *Jar) Clear(ctx context.Context, principal string) error {
	_, err := j.cache.Replace(ctx, principal, func(ctx context.Context) (Set, error) {
		if err := j.write(ctx, principal, Set{}); err != nil {
			return Set{}, err
		}
		return Set{}, nil
	}).Await()
	if err == nil {
		j.logger.DebugContext(ctx, "credentials cleared", logger.Principal(principal))
	}
	return err
}

func (j *Jar) loader(principal string) cache.Loader[Set] {
	return func(ctx context.Context) (Set, error) {
		s, err := j.store.Read(ctx, principal)
		if err != nil {
			j.logger.ErrorContext(ctx, "failed to read credentials",
				logger.Principal(principal),
				logger.Error(err),
			)
			return Set{}, storeError("read", principal, err)
		}
		return s, nil
	}
}

func (j *Jar) write(ctx context.Context, principal string, s Set) error {
	if err := j.store.Write(ctx, principal, s); err != nil {
		j.logger.ErrorContext(ctx, "failed to write credentials",
			logger.Principal(principal),
			logger.Error(err),
		)
		return storeError("write", principal, err)
	}
	return nil
}
