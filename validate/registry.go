package validate

import (
	"context"
	"sync"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// Registry is a catalog of validators keyed by name. It preserves
// registration order for bulk runs and rejects a name registered twice with
// different implementations; registering the identical implementation again
// is a no-op. Registries are populated at init time and read thereafter.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
	order      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[string]Validator),
	}
}

// defaultRegistry is the process-wide registry built-in validators register
// into at import time.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a validator. Returns an error when the validator declares no
// name or when the name is taken by a different implementation.
func (r *Registry) Register(v Validator) error {
	if v == nil {
		return errors.New(errors.CodeInvalidInput, "validator cannot be nil")
	}
	if v.Name() == "" || v.DisplayName() == "" || v.Category() == "" {
		return errors.Newf(errors.CodeInvalidInput,
			"validator %T must declare a name, display name, and category", v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.validators[v.Name()]; ok {
		if existing == v {
			return nil
		}
		return errors.Newf(errors.CodeAlreadyExists,
			"validator name %q already registered with a different implementation", v.Name())
	}

	r.validators[v.Name()] = v
	r.order = append(r.order, v.Name())
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error because
// a duplicate name is a programming mistake, not a runtime condition.
func (r *Registry) MustRegister(v Validator) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}

// Get returns the named validator.
func (r *Registry) Get(name string) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.validators[name]
	return v, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ByCategory returns the validators of a category in registration order.
func (r *Registry) ByCategory(category Category) []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Validator
	for _, name := range r.order {
		if v := r.validators[name]; v.Category() == category {
			out = append(out, v)
		}
	}
	return out
}

// RunAll executes every registered validator whose ShouldRun is true, in
// registration order, and returns one result per executed validator. It
// never short-circuits: the operator sees every problem in one pass.
func (r *Registry) RunAll(ctx context.Context, vctx *Context) []Result {
	return r.run(ctx, vctx, "")
}

// RunCategory is RunAll restricted to one category.
func (r *Registry) RunCategory(ctx context.Context, category Category, vctx *Context) []Result {
	return r.run(ctx, vctx, category)
}

func (r *Registry) run(ctx context.Context, vctx *Context, category Category) []Result {
	r.mu.RLock()
	ordered := make([]Validator, 0, len(r.order))
	for _, name := range r.order {
		v := r.validators[name]
		if category != "" && v.Category() != category {
			continue
		}
		ordered = append(ordered, v)
	}
	r.mu.RUnlock()

	var results []Result
	for _, v := range ordered {
		if !v.ShouldRun(ctx, vctx) {
			continue
		}

		result := safeValidate(ctx, v, vctx)
		result.Name = v.Name()
		results = append(results, result)
	}
	return results
}

// safeValidate converts a validator panic into a blocking result. Validators
// are contracted not to panic; this backstop keeps one broken check from
// hiding every other finding.
func safeValidate(ctx context.Context, v Validator, vctx *Context) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Failf("validator %s panicked: %v", v.Name(), rec)
		}
	}()
	return v.Validate(ctx, vctx)
}
