package topology

import (
	"sync"

	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/types"
)

// Manager owns one node's view of cluster topology: a mapping from cluster
// name to the current member set. Every mutation computes the resulting
// membership under the lock and invokes the injected Listener exactly once,
// synchronously, with a consistent snapshot. Member order is never
// significant; only set equality matters.
type Manager struct {
	node     types.NodeName
	clusters map[types.ClusterName]map[types.NodeName]types.NodeInfo
	listener Listener
	logger   *zap.Logger
	mutex    sync.Mutex
}

// NewManager creates a Manager scoped to the named node. The listener is a
// required collaborator; pass NopListener to discard notifications.
func NewManager(node types.NodeName, listener Listener, logger *zap.Logger) *Manager {
	if listener == nil {
		listener = NopListener{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		node:     node,
		clusters: make(map[types.ClusterName]map[types.NodeName]types.NodeInfo),
		listener: listener,
		logger:   logger,
	}
}

// DefineCluster sets or replaces the full membership of the named cluster.
// Defining is absolute: a replacement discards prior incremental history and
// the notification carries the full snapshot, not a diff.
func (m *Manager) DefineCluster(cluster types.ClusterInfo) {
	m.mutex.Lock()
	members := make(map[types.NodeName]types.NodeInfo, len(cluster.Members))
	for _, member := range cluster.Members {
		members[member.Name] = member
	}
	m.clusters[cluster.Name] = members
	snapshot := snapshotCluster(cluster.Name, members)
	m.mutex.Unlock()

	m.logger.Info("cluster defined",
		zap.String("node", string(m.node)),
		zap.String("cluster", string(cluster.Name)),
		zap.Int("members", len(snapshot.Members)))
	m.listener.ClusterDefined(snapshot)
}

// AddClusterNodes unions the supplied members into the named cluster,
// creating the cluster when it does not exist yet. Duplicate node names are
// deduplicated with last-write-wins attributes. The notification payload
// echoes the supplied ClusterInfo rather than the computed delta.
func (m *Manager) AddClusterNodes(cluster types.ClusterInfo) {
	m.mutex.Lock()
	members, ok := m.clusters[cluster.Name]
	if !ok {
		members = make(map[types.NodeName]types.NodeInfo, len(cluster.Members))
		m.clusters[cluster.Name] = members
	}
	for _, member := range cluster.Members {
		members[member.Name] = member
	}
	m.mutex.Unlock()

	m.logger.Info("cluster nodes added",
		zap.String("node", string(m.node)),
		zap.String("cluster", string(cluster.Name)),
		zap.Int("added", len(cluster.Members)))
	m.listener.ClusterNodesAdded(types.NewClusterInfo(cluster.Name, cluster.Members...))
}

// RemoveClusterNodes removes the named nodes from the cluster's membership.
// Names that are not currently members are skipped without error; the whole
// call always succeeds. The notification names the requested removal set,
// not the subset that was actually present.
func (m *Manager) RemoveClusterNodes(removal types.ClusterRemovalInfo) {
	m.mutex.Lock()
	if members, ok := m.clusters[removal.Name]; ok {
		for _, name := range removal.Nodes {
			delete(members, name)
		}
	}
	m.mutex.Unlock()

	m.logger.Info("cluster nodes removed",
		zap.String("node", string(m.node)),
		zap.String("cluster", string(removal.Name)),
		zap.Int("requested", len(removal.Nodes)))
	m.listener.ClusterNodesRemoved(removal)
}

// RemoveCluster deletes the cluster entry entirely. Removing an absent
// cluster name is a no-op, not an error; the notification still fires with
// just the name.
func (m *Manager) RemoveCluster(name types.ClusterName) {
	m.mutex.Lock()
	delete(m.clusters, name)
	m.mutex.Unlock()

	m.logger.Info("cluster removed",
		zap.String("node", string(m.node)),
		zap.String("cluster", string(name)))
	m.listener.ClusterRemoved(name)
}

// Cluster returns a snapshot of the named cluster's current membership.
func (m *Manager) Cluster(name types.ClusterName) (types.ClusterInfo, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	members, ok := m.clusters[name]
	if !ok {
		return types.ClusterInfo{}, false
	}
	return snapshotCluster(name, members), true
}

// Clusters returns a snapshot of all clusters currently tracked by this node.
func (m *Manager) Clusters() []types.ClusterInfo {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	snapshots := make([]types.ClusterInfo, 0, len(m.clusters))
	for name, members := range m.clusters {
		snapshots = append(snapshots, snapshotCluster(name, members))
	}
	return snapshots
}

func snapshotCluster(name types.ClusterName, members map[types.NodeName]types.NodeInfo) types.ClusterInfo {
	list := make([]types.NodeInfo, 0, len(members))
	for _, member := range members {
		list = append(list, member)
	}
	return types.ClusterInfo{Name: name, Members: list}
}
