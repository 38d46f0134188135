package node

import (
	"context"

	"github.com/meftunca/mockgrid/pkg/types"
)

// Endpoint is the node-start collaborator. Given a node identity it produces a
// running addressable endpoint and later tears it down. The real listener,
// request dispatch, and remote transaction service live behind this interface
// and are not modelled by the harness.
type Endpoint interface {
	// Bind brings the endpoint up for the given node identity. txService
	// indicates whether the remote transaction service should be enabled.
	Bind(ctx context.Context, info types.NodeInfo, txService bool) error
	// Close tears the endpoint down. A returned error is a shutdown fault:
	// it is diagnosed by the caller but never treated as an operation failure.
	Close() error
}

// EndpointFactory produces one Endpoint per node start. Each Start gets a
// fresh Endpoint so restart semantics never reuse a torn-down instance.
type EndpointFactory func(info types.NodeInfo) Endpoint

// loopbackEndpoint is the default collaborator: a pure in-memory stand-in
// that accepts any bind and closes without fault.
type loopbackEndpoint struct {
	bound bool
}

// NewLoopbackEndpoint creates an Endpoint that performs no real I/O.
func NewLoopbackEndpoint(types.NodeInfo) Endpoint {
	return &loopbackEndpoint{}
}

func (e *loopbackEndpoint) Bind(_ context.Context, _ types.NodeInfo, _ bool) error {
	e.bound = true
	return nil
}

func (e *loopbackEndpoint) Close() error {
	e.bound = false
	return nil
}
