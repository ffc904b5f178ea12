// Package blueprint maps registered blueprint kinds to executable logic.
// The host is a plain in-process dispatch table: the registry stores which
// kinds exist and at what fee, the host knows how to stamp out a fresh,
// isolated instance of each kind. Instances expose exactly one capability
// to the deploy path, Initialize; everything an instance can do afterwards
// is reached through its own component's surface.
package blueprint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

// Kind names a family of deployable logic.
type Kind string

// KindVesting is the linear token vesting blueprint.
const KindVesting Kind = "vesting"

func (k Kind) String() string { return string(k) }

// ErrUnknownKind rejects kinds the host has no factory for.
var ErrUnknownKind = dErrors.New(dErrors.CodeValidation, "unknown blueprint kind")

// Payload is the tagged initialization payload callers attach to a deploy.
// The kind tag is checked against the registry entry before any funds move;
// Spec stays opaque here and is decoded by the instance itself.
type Payload struct {
	Kind Kind            `json:"kind"`
	Spec json.RawMessage `json:"spec"`
}

// Validate checks the payload is structurally complete.
func (p Payload) Validate() error {
	if p.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "init payload kind is required")
	}
	if len(p.Spec) == 0 {
		return dErrors.New(dErrors.CodeValidation, "init payload spec is required")
	}
	return nil
}

// Instance is one isolated deployment of a blueprint. Initialize is the
// untrusted nested call in the deploy flow: the factory commits the escrow
// before invoking it and compensates if it fails.
type Instance interface {
	Initialize(ctx context.Context, instanceID id.InstanceID, deployer id.AccountID, payload Payload) error
}

// Factory stamps out a fresh, uninitialized instance of one kind.
type Factory func() Instance

// Host is the kind dispatch table. Registration happens once at wiring time;
// lookups are concurrent.
type Host struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{factories: make(map[Kind]Factory)}
}

// Register binds a kind to its factory. Rebinding a kind is a wiring bug.
func (h *Host) Register(kind Kind, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("blueprint kind is required")
	}
	if factory == nil {
		return fmt.Errorf("blueprint factory is required for kind %q", kind)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.factories[kind]; ok {
		return fmt.Errorf("blueprint kind %q already registered", kind)
	}
	h.factories[kind] = factory
	return nil
}

// Known reports whether the host can instantiate the kind.
func (h *Host) Known(kind Kind) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.factories[kind]
	return ok
}

// New clones a fresh instance of the kind.
func (h *Host) New(kind Kind) (Instance, error) {
	h.mu.RLock()
	factory, ok := h.factories[kind]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("clone kind %q: %w", kind, ErrUnknownKind)
	}
	return factory(), nil
}

// Kinds lists the registered kinds in stable order.
func (h *Host) Kinds() []Kind {
	h.mu.RLock()
	defer h.mu.RUnlock()
	kinds := make([]Kind, 0, len(h.factories))
	for k := range h.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
