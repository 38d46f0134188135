package api

import (
	"time"

	"github.com/meftunca/mockgrid/pkg/types"
)

// StartNodeRequest is the body of a node start call. Empty host/zero port
// fall back to the harness defaults for the slot.
type StartNodeRequest struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	TxService bool   `json:"tx_service"`
}

// StopNodeResponse reports the outcome of a stop or crash call
type StopNodeResponse struct {
	Stopped bool   `json:"stopped"`
	Fault   string `json:"fault,omitempty"`
}

// NodeResponse describes one node slot
type NodeResponse struct {
	Index      int                  `json:"index"`
	Name       types.NodeName       `json:"name"`
	Started    bool                 `json:"started"`
	Info       *types.NodeInfo      `json:"info,omitempty"`
	Components []types.ComponentKey `json:"components,omitempty"`
	Clusters   []types.ClusterInfo  `json:"clusters,omitempty"`
}

// RegisterComponentRequest deploys a component on a node. Instance is an
// opaque payload stored as-is.
type RegisterComponentRequest struct {
	AppName       string      `json:"app_name"`
	ModuleName    string      `json:"module_name"`
	DistinctName  string      `json:"distinct_name"`
	ComponentName string      `json:"component_name"`
	Instance      interface{} `json:"instance,omitempty"`
}

// RemoveClusterNodesRequest names nodes to drop from a cluster
type RemoveClusterNodesRequest struct {
	Nodes []types.NodeName `json:"nodes"`
}

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status       string        `json:"status"`
	Version      string        `json:"version"`
	Uptime       time.Duration `json:"uptime"`
	NodeCount    int           `json:"node_count"`
	NodesRunning int           `json:"nodes_running"`
}

// StatsResponse is the stats endpoint payload
type StatsResponse struct {
	Uptime        float64 `json:"uptime_seconds"`
	RequestsTotal int64   `json:"requests_total"`
	ErrorsTotal   int64   `json:"errors_total"`
	NodeCount     int     `json:"node_count"`
	NodesRunning  int     `json:"nodes_running"`
	FeedClients   int     `json:"feed_clients"`
}

// ErrorResponse carries a structured error back to the driver
type ErrorResponse struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}
