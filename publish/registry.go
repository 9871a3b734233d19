package publish

import (
	"context"
	"log/slog"
	"sync"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// Registry is a catalog of publishers keyed by name. Registration order is
// preserved for bulk runs; a name registered twice with different
// implementations is rejected, while registering the identical implementation
// again is a no-op.
type Registry struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
	order      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
	}
}

// defaultRegistry is the process-wide registry built-in publishers register
// into at import time.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a publisher. Returns an error when the publisher declares no
// name or when the name is taken by a different implementation.
func (r *Registry) Register(p Publisher) error {
	if p == nil {
		return errors.New(errors.CodeInvalidInput, "publisher cannot be nil")
	}
	if p.Name() == "" || p.DisplayName() == "" || p.Registry() == "" {
		return errors.Newf(errors.CodeInvalidInput,
			"publisher %T must declare a name, display name, and registry", p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.publishers[p.Name()]; ok {
		if existing == p {
			return nil
		}
		return errors.Newf(errors.CodeAlreadyExists,
			"publisher name %q already registered with a different implementation", p.Name())
	}

	r.publishers[p.Name()] = p
	r.order = append(r.order, p.Name())
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry) MustRegister(p Publisher) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the named publisher.
func (r *Registry) Get(name string) (Publisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.publishers[name]
	return p, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Select returns the named publishers in the given order. Unknown names
// yield an error rather than a silent skip.
func (r *Registry) Select(names []string) ([]Publisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Publisher, 0, len(names))
	for _, name := range names {
		p, ok := r.publishers[name]
		if !ok {
			return nil, errors.Newf(errors.CodeNotFound, "no publisher named %q", name).
				WithHint("run the publishers command to list the available ones")
		}
		out = append(out, p)
	}
	return out, nil
}

// PublishAll runs the given publishers in order, skipping those whose
// ShouldPublish is false, and stops at the first failure: a partially
// published release is rolled back by the caller, not widened.
func PublishAll(ctx context.Context, publishers []Publisher, pctx *Context, logger *slog.Logger) []Result {
	if logger == nil {
		logger = slog.Default()
	}

	var results []Result
	for _, p := range publishers {
		if !p.ShouldPublish(ctx, pctx) {
			logger.Debug("publisher does not apply", "publisher", p.Name())
			continue
		}

		logger.Info("publishing", "publisher", p.Name(), "registry", p.Registry(), "version", pctx.Version)
		result := p.Publish(ctx, pctx)
		result.Name = p.Name()
		if result.Version == "" {
			result.Version = pctx.Version
		}
		results = append(results, result)

		if result.Failed() {
			logger.Error("publish failed", "publisher", p.Name(), "message", result.Message)
			break
		}
	}
	return results
}

// VerifyAll verifies every given publisher that applies, each with the
// verifier's retry schedule. Verification is advisory, so it never
// short-circuits.
func VerifyAll(ctx context.Context, publishers []Publisher, pctx *Context, verifier *Verifier) []Result {
	if verifier == nil {
		verifier = NewVerifier()
	}

	var results []Result
	for _, p := range publishers {
		if !p.ShouldPublish(ctx, pctx) {
			continue
		}
		results = append(results, verifier.Verify(ctx, p, pctx))
	}
	return results
}
