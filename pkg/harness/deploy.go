package harness

import (
	"github.com/meftunca/mockgrid/pkg/types"
)

// Register deploys a component instance on the slot's node under the
// composite identity key. Registering an existing key overwrites it. The
// instance is opaque; no shape validation happens.
func (h *Harness) Register(index int, app, module, distinct, component string, instance interface{}) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}

	key := types.NewComponentKey(app, module, distinct, component)
	_, existed := n.Registry().Lookup(key)
	n.Registry().Register(key, instance)

	if h.metrics != nil && !existed {
		h.metrics.RecordComponentRegistered()
	}
	return nil
}

// Unregister removes the component at the composite key. An absent key is a
// no-op, not an error.
func (h *Harness) Unregister(index int, app, module, distinct, component string) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}

	key := types.NewComponentKey(app, module, distinct, component)
	_, existed := n.Registry().Lookup(key)
	n.Registry().Unregister(key)

	if h.metrics != nil && existed {
		h.metrics.RecordComponentUnregistered()
	}
	return nil
}

// Lookup resolves a deployed component instance on the slot's node. This is
// the read path the invocation collaborator uses.
func (h *Harness) Lookup(index int, key types.ComponentKey) (interface{}, bool, error) {
	n, err := h.startedNode(index)
	if err != nil {
		return nil, false, err
	}
	instance, ok := n.Registry().Lookup(key)
	return instance, ok, nil
}

// Components returns a snapshot of the keys deployed on the slot's node.
func (h *Harness) Components(index int) ([]types.ComponentKey, error) {
	n, err := h.startedNode(index)
	if err != nil {
		return nil, err
	}
	return n.Registry().Components(), nil
}

// updateComponentGauge recomputes the components-registered gauge across all
// currently started nodes. Node teardown drops registry contents without
// per-key unregister events, so the gauge is recomputed rather than decremented.
func (h *Harness) updateComponentGauge() {
	if h.metrics == nil {
		return
	}
	total := 0
	for i := range h.slots {
		if n := h.slot(i); n != nil && n.IsStarted() {
			total += n.Registry().Len()
		}
	}
	h.metrics.SetComponentsRegistered(total)
}
