package harness

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/config"
	"github.com/meftunca/mockgrid/pkg/metrics"
	"github.com/meftunca/mockgrid/pkg/node"
	"github.com/meftunca/mockgrid/pkg/topology"
	"github.com/meftunca/mockgrid/pkg/types"
)

// Harness models a small distributed deployment: a fixed table of node slots,
// each hosting a component registry and its own view of cluster topology.
// Slot indices are array-stable; the index-to-name binding is fixed at
// construction and survives node restarts. All state is process-lifetime.
type Harness struct {
	cfg       config.HarnessConfig
	logger    *zap.Logger
	metrics   *metrics.HarnessMetrics
	listeners topology.MultiListener
	endpoints node.EndpointFactory

	mutex sync.RWMutex
	slots []*node.Node
}

// Option configures a Harness
type Option func(*Harness)

// WithLogger sets the harness logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithMetrics attaches Prometheus collectors to harness activity.
func WithMetrics(m *metrics.HarnessMetrics) Option {
	return func(h *Harness) { h.metrics = m }
}

// WithListener fans topology notifications out to an additional listener.
// May be given more than once; listeners are invoked in registration order.
func WithListener(l topology.Listener) Option {
	return func(h *Harness) { h.listeners = append(h.listeners, l) }
}

// WithEndpointFactory overrides the node-start collaborator. The default is
// the in-memory loopback endpoint.
func WithEndpointFactory(f node.EndpointFactory) Option {
	return func(h *Harness) { h.endpoints = f }
}

// AddListener appends a topology listener after construction. It exists for
// collaborators that need the harness to be built first, such as the API
// server's WebSocket feed. The listener is picked up by nodes started after
// the call; already started nodes keep their existing chain.
func (h *Harness) AddListener(l topology.Listener) {
	h.mutex.Lock()
	h.listeners = append(h.listeners, l)
	h.mutex.Unlock()
}

// New creates a Harness with every slot stopped.
func New(cfg config.HarnessConfig, opts ...Option) *Harness {
	h := &Harness{
		cfg:       cfg,
		logger:    zap.NewNop(),
		endpoints: node.NewLoopbackEndpoint,
		slots:     make([]*node.Node, len(cfg.NodeNames)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NodeCount returns the number of node slots.
func (h *Harness) NodeCount() int {
	return len(h.slots)
}

// NodeName returns the fixed logical name bound to the given slot.
func (h *Harness) NodeName(index int) (types.NodeName, error) {
	if err := h.checkIndex(index); err != nil {
		return "", err
	}
	return types.NodeName(h.cfg.NodeNames[index]), nil
}

// StartNode constructs a new node bound to the slot's fixed logical name and
// brings it to started. Re-invoking on an already started slot replaces the
// prior instance: restart semantics, not an error. The replaced instance is
// stopped first so its endpoint does not leak; any fault from that shutdown
// is absorbed.
func (h *Harness) StartNode(ctx context.Context, index int, host string, port int, txService bool) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}

	name := types.NodeName(h.cfg.NodeNames[index])
	info := types.NewNodeInfo(name, host, port)
	fresh := node.New(info, txService, h.endpoints(info), h.nodeListener(), h.logger)

	h.mutex.Lock()
	prior := h.slots[index]
	h.slots[index] = fresh
	h.mutex.Unlock()

	if prior != nil && prior.IsStarted() {
		result := prior.Stop()
		if result.Fault != nil {
			h.recordShutdownFault()
		}
		if result.Stopped {
			h.recordNodeStopped()
		}
		h.updateComponentGauge()
		h.updateClusterGauge()
	}

	if err := fresh.Start(ctx); err != nil {
		return err
	}
	h.recordNodeStarted()
	return nil
}

// StartNodeWithDefaults starts the slot on the configured default host and
// its slot-derived default port, without the transaction service.
func (h *Harness) StartNodeWithDefaults(ctx context.Context, index int) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}
	return h.StartNode(ctx, index, h.cfg.DefaultHost, h.cfg.PortFor(index), false)
}

// StopNode attempts graceful shutdown of the slot's node. Stopping a slot
// that was never started or is already stopped is a no-op, not an error. A
// shutdown fault is absorbed into the result; the node still ends stopped.
func (h *Harness) StopNode(index int) (node.StopResult, error) {
	if err := h.checkIndex(index); err != nil {
		return node.StopResult{}, err
	}

	n := h.slot(index)
	if n == nil {
		return node.StopResult{}, nil
	}

	result := n.Stop()
	if result.Fault != nil {
		h.recordShutdownFault()
	}
	if result.Stopped {
		h.recordNodeStopped()
		h.updateComponentGauge()
		h.updateClusterGauge()
	}
	return result, nil
}

// CrashNode fail-stops the slot's node without graceful coordination. The
// resulting state matches StopNode; the difference is purely diagnostic.
func (h *Harness) CrashNode(index int) (node.StopResult, error) {
	if err := h.checkIndex(index); err != nil {
		return node.StopResult{}, err
	}

	n := h.slot(index)
	if n == nil {
		return node.StopResult{}, nil
	}

	result := n.Crash()
	if result.Fault != nil {
		h.recordShutdownFault()
	}
	if result.Stopped {
		h.recordNodeCrashed()
		h.updateComponentGauge()
		h.updateClusterGauge()
	}
	return result, nil
}

// IsStarted reports whether the slot currently hosts a started node. It is
// safe at any time and returns false for out-of-range indices.
func (h *Harness) IsStarted(index int) bool {
	if index < 0 || index >= len(h.slots) {
		return false
	}
	n := h.slot(index)
	return n != nil && n.IsStarted()
}

// NodeInfo returns the identity record of the slot's current node.
func (h *Harness) NodeInfo(index int) (types.NodeInfo, error) {
	n, err := h.startedNode(index)
	if err != nil {
		return types.NodeInfo{}, err
	}
	return n.Info(), nil
}

// StopAll gracefully stops every started node, absorbing faults.
func (h *Harness) StopAll() {
	for i := range h.slots {
		if h.IsStarted(i) {
			h.StopNode(i)
		}
	}
}

// checkIndex fails with a configuration error for out-of-range indices.
func (h *Harness) checkIndex(index int) error {
	if index < 0 || index >= len(h.slots) {
		return types.ErrBadNodeIndex(index, len(h.slots))
	}
	return nil
}

func (h *Harness) slot(index int) *node.Node {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.slots[index]
}

// startedNode resolves the slot to a started node, failing with
// NODE_NOT_STARTED for a stopped or never-started slot. Deploy and topology
// operations go through this guard instead of silently succeeding against a
// dangling reference.
func (h *Harness) startedNode(index int) (*node.Node, error) {
	if err := h.checkIndex(index); err != nil {
		return nil, err
	}
	n := h.slot(index)
	if n == nil || !n.IsStarted() {
		return nil, types.ErrNodeNotStarted(types.NodeName(h.cfg.NodeNames[index]))
	}
	return n, nil
}

func (h *Harness) recordNodeStarted() {
	if h.metrics != nil {
		h.metrics.RecordNodeStarted()
	}
}

func (h *Harness) recordNodeStopped() {
	if h.metrics != nil {
		h.metrics.RecordNodeStopped()
	}
}

func (h *Harness) recordNodeCrashed() {
	if h.metrics != nil {
		h.metrics.RecordNodeCrashed()
	}
}

func (h *Harness) recordShutdownFault() {
	if h.metrics != nil {
		h.metrics.RecordShutdownFault()
	}
}
