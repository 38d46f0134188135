package topology

import (
	"time"

	"github.com/google/uuid"

	"github.com/meftunca/mockgrid/pkg/types"
)

// Listener consumes membership-change notifications from a topology Manager.
// Each mutating topology operation produces exactly one synchronous callback;
// the Manager guarantees call order and at-most-one notification per
// operation, never delivery retries.
type Listener interface {
	// ClusterDefined reports a full cluster definition snapshot.
	ClusterDefined(cluster types.ClusterInfo)
	// ClusterNodesAdded reports an incremental node addition.
	ClusterNodesAdded(cluster types.ClusterInfo)
	// ClusterNodesRemoved reports an incremental node removal.
	ClusterNodesRemoved(removal types.ClusterRemovalInfo)
	// ClusterRemoved reports a full cluster removal.
	ClusterRemoved(name types.ClusterName)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) ClusterDefined(types.ClusterInfo)             {}
func (NopListener) ClusterNodesAdded(types.ClusterInfo)          {}
func (NopListener) ClusterNodesRemoved(types.ClusterRemovalInfo) {}
func (NopListener) ClusterRemoved(types.ClusterName)             {}

// MultiListener fans every notification out to each listener in order.
type MultiListener []Listener

func (m MultiListener) ClusterDefined(cluster types.ClusterInfo) {
	for _, l := range m {
		l.ClusterDefined(cluster)
	}
}

func (m MultiListener) ClusterNodesAdded(cluster types.ClusterInfo) {
	for _, l := range m {
		l.ClusterNodesAdded(cluster)
	}
}

func (m MultiListener) ClusterNodesRemoved(removal types.ClusterRemovalInfo) {
	for _, l := range m {
		l.ClusterNodesRemoved(removal)
	}
}

func (m MultiListener) ClusterRemoved(name types.ClusterName) {
	for _, l := range m {
		l.ClusterRemoved(name)
	}
}

// EventType identifies the kind of topology notification carried by an Event.
type EventType string

const (
	EventClusterDefined      EventType = "cluster_defined"
	EventClusterNodesAdded   EventType = "cluster_nodes_added"
	EventClusterNodesRemoved EventType = "cluster_nodes_removed"
	EventClusterRemoved      EventType = "cluster_removed"
)

// Event is a serializable envelope around a single topology notification,
// used by feeds that push notifications outward (for example over WebSocket).
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Node      types.NodeName    `json:"node,omitempty"`
	Cluster   types.ClusterName `json:"cluster"`
	Members   []types.NodeInfo  `json:"members,omitempty"`
	Removed   []types.NodeName  `json:"removed,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent creates an Event envelope with a fresh unique ID.
func NewEvent(eventType EventType, node types.NodeName, cluster types.ClusterName) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Node:      node,
		Cluster:   cluster,
		Timestamp: time.Now(),
	}
}
