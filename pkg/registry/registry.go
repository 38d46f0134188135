package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/types"
)

// ComponentRegistry is a per-node, non-persistent store mapping a composite
// component identity to an opaque deployed instance. Entries are only
// meaningful while the owning node is started; they become unreachable when
// the node is torn down.
type ComponentRegistry struct {
	node       types.NodeName
	components map[types.ComponentKey]interface{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

// New creates an empty ComponentRegistry for the named node.
func New(node types.NodeName, logger *zap.Logger) *ComponentRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComponentRegistry{
		node:       node,
		components: make(map[types.ComponentKey]interface{}),
		logger:     logger,
	}
}

// Register inserts or overwrites the entry at the composite key. The instance
// is opaque; no shape validation happens here.
func (r *ComponentRegistry) Register(key types.ComponentKey, instance interface{}) {
	r.mutex.Lock()
	r.components[key] = instance
	r.mutex.Unlock()

	r.logger.Info("registered component",
		zap.String("module", key.ModuleID()),
		zap.String("component", key.ComponentName),
		zap.String("node", string(r.node)))
}

// Unregister removes the entry if present; absent keys are a no-op.
func (r *ComponentRegistry) Unregister(key types.ComponentKey) {
	r.mutex.Lock()
	_, existed := r.components[key]
	delete(r.components, key)
	r.mutex.Unlock()

	if existed {
		r.logger.Info("unregistered component",
			zap.String("module", key.ModuleID()),
			zap.String("component", key.ComponentName),
			zap.String("node", string(r.node)))
	}
}

// Lookup returns the instance deployed at the given key. The invocation
// collaborator reads entries through this.
func (r *ComponentRegistry) Lookup(key types.ComponentKey) (interface{}, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	instance, ok := r.components[key]
	return instance, ok
}

// Components returns a snapshot of the currently registered keys.
func (r *ComponentRegistry) Components() []types.ComponentKey {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	keys := make([]types.ComponentKey, 0, len(r.components))
	for key := range r.components {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of registered components.
func (r *ComponentRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.components)
}
