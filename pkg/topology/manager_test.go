package topology

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meftunca/mockgrid/pkg/types"
)

var (
	node1 = types.NewNodeInfo("node1", "localhost", 6999)
	node2 = types.NewNodeInfo("node2", "localhost", 7099)
	node3 = types.NewNodeInfo("node3", "localhost", 7199)
)

// recordingListener tracks every notification it receives, in order.
type recordingListener struct {
	mu       sync.Mutex
	defined  []types.ClusterInfo
	added    []types.ClusterInfo
	removed  []types.ClusterRemovalInfo
	deleted  []types.ClusterName
	sequence []string
}

func (l *recordingListener) ClusterDefined(cluster types.ClusterInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defined = append(l.defined, cluster)
	l.sequence = append(l.sequence, "defined")
}

func (l *recordingListener) ClusterNodesAdded(cluster types.ClusterInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.added = append(l.added, cluster)
	l.sequence = append(l.sequence, "added")
}

func (l *recordingListener) ClusterNodesRemoved(removal types.ClusterRemovalInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, removal)
	l.sequence = append(l.sequence, "removed")
}

func (l *recordingListener) ClusterRemoved(name types.ClusterName) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, name)
	l.sequence = append(l.sequence, "deleted")
}

func TestDefineClusterNotifiesFullSnapshot(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1, node2))

	require.Len(t, listener.defined, 1)
	assert.Equal(t, types.ClusterName("ejb"), listener.defined[0].Name)
	assert.ElementsMatch(t, []types.NodeName{"node1", "node2"}, listener.defined[0].MemberNames())

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	assert.ElementsMatch(t, []types.NodeName{"node1", "node2"}, cluster.MemberNames())
}

func TestDefineClusterReplacesMembership(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1, node2))
	mgr.DefineCluster(types.NewClusterInfo("ejb", node3))

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	assert.ElementsMatch(t, []types.NodeName{"node3"}, cluster.MemberNames())
	require.Len(t, listener.defined, 2)
	assert.ElementsMatch(t, []types.NodeName{"node3"}, listener.defined[1].MemberNames())
}

func TestAddClusterNodesUnionsMembership(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1, node2))
	mgr.AddClusterNodes(types.NewClusterInfo("ejb", node3))

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	assert.ElementsMatch(t, []types.NodeName{"node1", "node2", "node3"}, cluster.MemberNames())

	// one full-definition event, then one addition event
	assert.Equal(t, []string{"defined", "added"}, listener.sequence)
	require.Len(t, listener.added, 1)
	assert.ElementsMatch(t, []types.NodeName{"node3"}, listener.added[0].MemberNames())
}

func TestAddClusterNodesCreatesAbsentCluster(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.AddClusterNodes(types.NewClusterInfo("ejb", node1))

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	assert.ElementsMatch(t, []types.NodeName{"node1"}, cluster.MemberNames())
	assert.Empty(t, listener.defined)
	require.Len(t, listener.added, 1)
}

func TestAddClusterNodesLastWriteWinsOnDuplicate(t *testing.T) {
	mgr := NewManager("node1", NopListener{}, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1))
	moved := types.NewNodeInfo("node1", "localhost", 8999)
	mgr.AddClusterNodes(types.NewClusterInfo("ejb", moved))

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	require.Len(t, cluster.Members, 1)
	member, ok := cluster.Member("node1")
	require.True(t, ok)
	assert.Equal(t, 8999, member.Port)
}

func TestRemoveClusterNodesIgnoresUnknownNames(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1, node2))
	mgr.RemoveClusterNodes(types.NewClusterRemovalInfo("ejb", "node2", "ghost"))

	cluster, ok := mgr.Cluster("ejb")
	require.True(t, ok)
	assert.ElementsMatch(t, []types.NodeName{"node1"}, cluster.MemberNames())

	// the notification names the requested removal set, unfiltered
	require.Len(t, listener.removed, 1)
	assert.ElementsMatch(t, []types.NodeName{"node2", "ghost"}, listener.removed[0].Nodes)
}

func TestRemoveClusterNodesOnAbsentClusterIsNoOp(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	assert.NotPanics(t, func() {
		mgr.RemoveClusterNodes(types.NewClusterRemovalInfo("ghost-cluster", "node1"))
	})
	require.Len(t, listener.removed, 1)
}

func TestRemoveClusterDeletesEntry(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1))
	mgr.RemoveCluster("ejb")

	_, ok := mgr.Cluster("ejb")
	assert.False(t, ok)
	assert.Equal(t, []types.ClusterName{"ejb"}, listener.deleted)
}

func TestRemoveAbsentClusterLeavesStateUnchanged(t *testing.T) {
	listener := &recordingListener{}
	mgr := NewManager("node1", listener, nil)
	mgr.DefineCluster(types.NewClusterInfo("ejb", node1))

	assert.NotPanics(t, func() {
		mgr.RemoveCluster("web")
	})

	_, ok := mgr.Cluster("ejb")
	assert.True(t, ok)
	assert.Len(t, mgr.Clusters(), 1)
}

func TestMultiListenerFansOutInOrder(t *testing.T) {
	first := &recordingListener{}
	second := &recordingListener{}
	mgr := NewManager("node1", MultiListener{first, second}, nil)

	mgr.DefineCluster(types.NewClusterInfo("ejb", node1))
	mgr.RemoveCluster("ejb")

	assert.Equal(t, []string{"defined", "deleted"}, first.sequence)
	assert.Equal(t, []string{"defined", "deleted"}, second.sequence)
}

func TestNewEventCarriesUniqueID(t *testing.T) {
	a := NewEvent(EventClusterDefined, "node1", "ejb")
	b := NewEvent(EventClusterDefined, "node1", "ejb")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, EventClusterDefined, a.Type)
}
