package effect

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup for an Eid with no implementation.
var ErrNotFound = errors.New("effect: not implemented")

// Registry indexes effect implementations by Eid and by timing. It is built
// once at startup and read-only afterwards, so concurrent readers need no lock.
type Registry struct {
	byID   map[int]Effect
	order  []Effect
	before []Effect
	after  []Effect
}

// NewRegistry registers effects in the given order. Two effects with the
// same Eid, or an effect that declares no timing, is an error.
func NewRegistry(effects ...Effect) (*Registry, error) {
	r := &Registry{byID: make(map[int]Effect, len(effects))}
	for _, e := range effects {
		if _, dup := r.byID[e.ID()]; dup {
			return nil, fmt.Errorf("effect: duplicate eid %d (%s)", e.ID(), e.Name())
		}
		t := e.Timings()
		if !t.Has(BeforeDamageCalc) && !t.Has(AfterDamageApply) {
			return nil, fmt.Errorf("effect: eid %d (%s) declares no timing", e.ID(), e.Name())
		}
		r.byID[e.ID()] = e
		r.order = append(r.order, e)
		if t.Has(BeforeDamageCalc) {
			r.before = append(r.before, e)
		}
		if t.Has(AfterDamageApply) {
			r.after = append(r.after, e)
		}
	}
	return r, nil
}

// Lookup returns the implementation registered for eid.
func (r *Registry) Lookup(eid int) (Effect, error) {
	e, ok := r.byID[eid]
	if !ok {
		return nil, fmt.Errorf("%w: eid %d", ErrNotFound, eid)
	}
	return e, nil
}

// Phase returns the effects declaring the given timing, in registration order.
func (r *Registry) Phase(t Timing) []Effect {
	var src []Effect
	switch t {
	case BeforeDamageCalc:
		src = r.before
	case AfterDamageApply:
		src = r.after
	}
	return append([]Effect(nil), src...)
}

// Descriptors lists every registered effect in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.order))
	for i, e := range r.order {
		out[i] = Describe(e)
	}
	return out
}

// Len returns the number of registered effects.
func (r *Registry) Len() int {
	return len(r.order)
}
