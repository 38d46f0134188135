package harness

import (
	"github.com/meftunca/mockgrid/pkg/topology"
	"github.com/meftunca/mockgrid/pkg/types"
)

// DefineCluster sets or replaces the full membership of the named cluster as
// seen by the slot's node and notifies the listener with the full snapshot.
func (h *Harness) DefineCluster(index int, cluster types.ClusterInfo) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}
	n.Topology().DefineCluster(cluster)
	h.updateClusterGauge()
	return nil
}

// AddClusterNodes unions the supplied members into the cluster as seen by the
// slot's node, creating the cluster if absent.
func (h *Harness) AddClusterNodes(index int, cluster types.ClusterInfo) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}
	n.Topology().AddClusterNodes(cluster)
	h.updateClusterGauge()
	return nil
}

// RemoveClusterNodes removes the named nodes from the cluster as seen by the
// slot's node. Unknown names are ignored without error.
func (h *Harness) RemoveClusterNodes(index int, removal types.ClusterRemovalInfo) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}
	n.Topology().RemoveClusterNodes(removal)
	return nil
}

// RemoveCluster deletes the cluster entry entirely for the slot's node.
// Removing an absent name is a no-op.
func (h *Harness) RemoveCluster(index int, name types.ClusterName) error {
	n, err := h.startedNode(index)
	if err != nil {
		return err
	}
	n.Topology().RemoveCluster(name)
	h.updateClusterGauge()
	return nil
}

// Cluster returns a snapshot of the named cluster as seen by the slot's node.
func (h *Harness) Cluster(index int, name types.ClusterName) (types.ClusterInfo, bool, error) {
	n, err := h.startedNode(index)
	if err != nil {
		return types.ClusterInfo{}, false, err
	}
	cluster, ok := n.Topology().Cluster(name)
	return cluster, ok, nil
}

// Clusters returns snapshots of every cluster tracked by the slot's node.
func (h *Harness) Clusters(index int) ([]types.ClusterInfo, error) {
	n, err := h.startedNode(index)
	if err != nil {
		return nil, err
	}
	return n.Topology().Clusters(), nil
}

// nodeListener builds the listener chain injected into a fresh node's
// topology manager: metrics accounting first, then user listeners in
// registration order.
func (h *Harness) nodeListener() topology.Listener {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	chain := make(topology.MultiListener, 0, len(h.listeners)+1)
	if h.metrics != nil {
		chain = append(chain, &metricsListener{metrics: h.metrics})
	}
	chain = append(chain, h.listeners...)
	return chain
}

// updateClusterGauge recomputes the clusters-defined gauge across all
// currently started nodes.
func (h *Harness) updateClusterGauge() {
	if h.metrics == nil {
		return
	}
	total := 0
	for i := range h.slots {
		if n := h.slot(i); n != nil && n.IsStarted() {
			total += len(n.Topology().Clusters())
		}
	}
	h.metrics.SetClustersDefined(total)
}

// metricsListener counts topology notifications by type.
type metricsListener struct {
	metrics interface {
		RecordTopologyNotification(notificationType string)
	}
}

func (l *metricsListener) ClusterDefined(types.ClusterInfo) {
	l.metrics.RecordTopologyNotification(string(topology.EventClusterDefined))
}

func (l *metricsListener) ClusterNodesAdded(types.ClusterInfo) {
	l.metrics.RecordTopologyNotification(string(topology.EventClusterNodesAdded))
}

func (l *metricsListener) ClusterNodesRemoved(types.ClusterRemovalInfo) {
	l.metrics.RecordTopologyNotification(string(topology.EventClusterNodesRemoved))
}

func (l *metricsListener) ClusterRemoved(types.ClusterName) {
	l.metrics.RecordTopologyNotification(string(topology.EventClusterRemoved))
}
