// Package registry maps external container ids to isolated flow instances.
//
// One registry serves a whole host page. Its only responsibility is
// lookup, creation, and teardown: instances share no mutable state, so
// operations on different instances may interleave freely.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sacscloud/checkout/internal/cart"
	"github.com/sacscloud/checkout/internal/config"
	"github.com/sacscloud/checkout/internal/flow"
)

// ErrNotFound is returned when an id resolves to no registered instance.
var ErrNotFound = errors.New("no checkout instance for id")

// IDGenerator generates instance ids used as last-resort registry keys.
// Implemented by UUIDv7Generator (production) and fixed generators in
// tests.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 instance ids.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Registry owns the container-id -> instance map.
//
// The zero value is not usable; construct with New.
type Registry struct {
	cfg   *flowConfig
	idGen IDGenerator

	mu          sync.Mutex
	instances   map[string]*flow.Instance
	lastCreated string
}

// flowConfig is the immutable slice of account configuration the registry
// needs to mint instances.
type flowConfig struct {
	signatureRequired bool
	lines             []cart.Line
	instanceOpts      []flow.Option
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator overrides the production UUIDv7 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) { r.idGen = g }
}

// WithInstanceOptions passes options through to every instance the
// registry creates.
func WithInstanceOptions(opts ...flow.Option) Option {
	return func(r *Registry) { r.cfg.instanceOpts = opts }
}

// New builds a registry that mints instances from the account
// configuration: the catalog becomes each new instance's cart and
// signature_required is resolved once, at creation time.
func New(cfg *config.Config, opts ...Option) *Registry {
	r := &Registry{
		cfg: &flowConfig{
			signatureRequired: cfg.SignatureRequired,
			lines:             catalogLines(cfg),
		},
		idGen:     UUIDv7Generator{},
		instances: make(map[string]*flow.Instance),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func catalogLines(cfg *config.Config) []cart.Line {
	lines := make([]cart.Line, 0, len(cfg.Catalog))
	for _, c := range cfg.Catalog {
		lines = append(lines, cart.Line{
			ProductID:      c.ProductID,
			Name:           c.Name,
			UnitPrice:      c.UnitPrice,
			TaxRatePercent: c.TaxRatePercent,
			Variant:        c.Variant,
		})
	}
	return lines
}

// Create registers a fresh instance under containerID. An empty
// containerID gets a generated instance id as its key. The new instance
// becomes the default target for id-less operations.
func (r *Registry) Create(containerID string) *flow.Instance {
	id := containerID
	if id == "" {
		id = r.idGen.Generate()
	}
	inst := flow.NewInstance(r.idGen.Generate(), id, r.cfg.signatureRequired, r.cfg.lines, r.cfg.instanceOpts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[id] = inst
	r.lastCreated = id
	return inst
}

// Get resolves an id to its instance. An empty id resolves to the most
// recently created instance, a documented convenience for single-instance
// pages.
func (r *Registry) Get(id string) (*flow.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(id)
}

func (r *Registry) resolveLocked(id string) (*flow.Instance, error) {
	if id == "" {
		id = r.lastCreated
	}
	inst, ok := r.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return inst, nil
}

// Remove tears an instance down, discarding its state. Removing the
// last-created instance leaves id-less operations unresolvable until the
// next Create.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.resolveLocked(id)
	if err != nil {
		return err
	}
	inst.Close()
	delete(r.instances, inst.ContainerID())
	if r.lastCreated == inst.ContainerID() {
		r.lastCreated = ""
	}
	return nil
}

// Len reports the number of registered instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// --- host-page control surface --------------------------------------------

// Open opens (or reopens) the resolved instance.
func (r *Registry) Open(id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}
	inst.Open()
	return nil
}

// Close closes the resolved instance without removing it; a later Open
// resets it to the cart step with cart and customer data retained.
func (r *Registry) Close(id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}
	inst.Close()
	return nil
}

// UpdateQuantity sets a cart line's quantity on the resolved instance.
// Invalid indexes and negative quantities are a silent no-op, matching the
// instance-level contract.
func (r *Registry) UpdateQuantity(index, quantity int, id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}
	inst.UpdateQuantity(index, quantity)
	return nil
}

// GoToStep performs a backward jump on the resolved instance.
func (r *Registry) GoToStep(step flow.Step, id string) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}
	return inst.GoToStep(step)
}
