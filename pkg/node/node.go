package node

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/registry"
	"github.com/meftunca/mockgrid/pkg/topology"
	"github.com/meftunca/mockgrid/pkg/types"
)

// State represents the lifecycle state of a node
type State int32

const (
	StateStopped State = iota
	StateStarted
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarted:
		return "started"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// StopResult distinguishes "lifecycle state updated" from "shutdown fault
// observed". The state transition always happens; Fault carries whatever the
// endpoint reported during teardown so the caller can inspect it without it
// affecting control flow.
type StopResult struct {
	// Stopped is true when the call transitioned a running node to stopped,
	// false when the node was not running and the call was a no-op.
	Stopped bool
	// Fault is the absorbed shutdown fault, if any.
	Fault error
}

// Node is a lifecycle-managed unit addressed by a stable logical name. It
// owns a ComponentRegistry and its own view of cluster topology, both only
// meaningful while the node is started.
type Node struct {
	info      types.NodeInfo
	txService bool
	state     int32
	endpoint  Endpoint
	registry  *registry.ComponentRegistry
	topology  *topology.Manager
	logger    *zap.Logger
}

// New constructs a stopped node. The endpoint collaborator and topology
// listener are injected; nil values fall back to the loopback endpoint and a
// discarding listener.
func New(info types.NodeInfo, txService bool, endpoint Endpoint, listener topology.Listener, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint == nil {
		endpoint = NewLoopbackEndpoint(info)
	}
	return &Node{
		info:      info,
		txService: txService,
		endpoint:  endpoint,
		registry:  registry.New(info.Name, logger),
		topology:  topology.NewManager(info.Name, listener, logger),
		logger:    logger,
	}
}

// Start brings the node to started by binding its endpoint. Starting an
// already started node is a no-op; restart semantics are handled one level up
// by replacing the node instance.
func (n *Node) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&n.state, int32(StateStopped), int32(StateStarted)) {
		return nil
	}
	if err := n.endpoint.Bind(ctx, n.info, n.txService); err != nil {
		atomic.StoreInt32(&n.state, int32(StateStopped))
		return err
	}
	n.logger.Info("node started",
		zap.String("node", string(n.info.Name)),
		zap.String("addr", n.info.Host),
		zap.Int("port", n.info.Port),
		zap.Bool("tx_service", n.txService))
	return nil
}

// Stop attempts graceful shutdown. A fault from the endpoint is absorbed and
// reported in the result only; the state is forced to stopped regardless.
// Stopping a node that is not started is a no-op.
func (n *Node) Stop() StopResult {
	if !atomic.CompareAndSwapInt32(&n.state, int32(StateStarted), int32(StateStopped)) {
		return StopResult{}
	}
	result := StopResult{Stopped: true}
	if err := n.endpoint.Close(); err != nil {
		result.Fault = types.ErrShutdownFault(n.info.Name, err)
		n.logger.Info("could not stop node cleanly",
			zap.String("node", string(n.info.Name)),
			zap.Error(err))
	}
	n.logger.Info("node stopped", zap.String("node", string(n.info.Name)))
	return result
}

// Crash models an ungraceful fail-stop: shutdown is attempted without prior
// coordination and any fault is again absorbed. The resulting state is the
// same as Stop; the distinction is purely at the event level.
func (n *Node) Crash() StopResult {
	if !atomic.CompareAndSwapInt32(&n.state, int32(StateStarted), int32(StateCrashed)) {
		return StopResult{}
	}
	result := StopResult{Stopped: true}
	if err := n.endpoint.Close(); err != nil {
		result.Fault = types.ErrShutdownFault(n.info.Name, err)
		n.logger.Warn("could not crash node cleanly",
			zap.String("node", string(n.info.Name)),
			zap.Error(err))
	}
	atomic.StoreInt32(&n.state, int32(StateStopped))
	n.logger.Warn("node crashed", zap.String("node", string(n.info.Name)))
	return result
}

// IsStarted reports whether the node is currently started. Safe to call at
// any time, including before any Start.
func (n *Node) IsStarted() bool {
	return State(atomic.LoadInt32(&n.state)) == StateStarted
}

// State returns the current lifecycle state.
func (n *Node) State() State {
	return State(atomic.LoadInt32(&n.state))
}

// Info returns the node's identity record.
func (n *Node) Info() types.NodeInfo {
	return n.info
}

// TxServiceEnabled reports whether the node was started with the remote
// transaction service flag.
func (n *Node) TxServiceEnabled() bool {
	return n.txService
}

// Registry returns the node's component registry.
func (n *Node) Registry() *registry.ComponentRegistry {
	return n.registry
}

// Topology returns the node's cluster topology manager.
func (n *Node) Topology() *topology.Manager {
	return n.topology
}
