package types

// NodeName represents a node's stable logical name
type NodeName string

// ClusterName represents a named cluster of nodes
type ClusterName string

// NodeInfo describes a node's identity and addresses. It is an immutable value
// and safe to share between goroutines without synchronization.
type NodeInfo struct {
	Name          NodeName `json:"name"`
	Host          string   `json:"host"`
	Port          int      `json:"port"`
	SecondaryHost string   `json:"secondary_host,omitempty"`
	SecondaryPort int      `json:"secondary_port,omitempty"`
}

// NewNodeInfo creates a NodeInfo with a single network interface.
func NewNodeInfo(name NodeName, host string, port int) NodeInfo {
	return NodeInfo{Name: name, Host: host, Port: port}
}

// NewDualNodeInfo creates a NodeInfo with a secondary network interface.
func NewDualNodeInfo(name NodeName, host string, port int, secondaryHost string, secondaryPort int) NodeInfo {
	return NodeInfo{
		Name:          name,
		Host:          host,
		Port:          port,
		SecondaryHost: secondaryHost,
		SecondaryPort: secondaryPort,
	}
}

// ClusterInfo describes the full membership of a named cluster. Member order is
// not significant; member names are unique within one ClusterInfo.
type ClusterInfo struct {
	Name    ClusterName `json:"name"`
	Members []NodeInfo  `json:"members"`
}

// NewClusterInfo creates a ClusterInfo from the given members. Duplicate member
// names are collapsed, the last occurrence wins.
func NewClusterInfo(name ClusterName, members ...NodeInfo) ClusterInfo {
	deduped := make([]NodeInfo, 0, len(members))
	seen := make(map[NodeName]int, len(members))
	for _, m := range members {
		if i, ok := seen[m.Name]; ok {
			deduped[i] = m
			continue
		}
		seen[m.Name] = len(deduped)
		deduped = append(deduped, m)
	}
	return ClusterInfo{Name: name, Members: deduped}
}

// Member returns the member with the given name, if present.
func (c ClusterInfo) Member(name NodeName) (NodeInfo, bool) {
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	return NodeInfo{}, false
}

// MemberNames returns the names of all members.
func (c ClusterInfo) MemberNames() []NodeName {
	names := make([]NodeName, len(c.Members))
	for i, m := range c.Members {
		names[i] = m.Name
	}
	return names
}

// ClusterRemovalInfo names nodes to remove from a cluster. The named nodes need
// not currently be members; removal of an absent member is a no-op.
type ClusterRemovalInfo struct {
	Name  ClusterName `json:"name"`
	Nodes []NodeName  `json:"nodes"`
}

// NewClusterRemovalInfo creates a ClusterRemovalInfo for the given node names.
func NewClusterRemovalInfo(name ClusterName, nodes ...NodeName) ClusterRemovalInfo {
	return ClusterRemovalInfo{Name: name, Nodes: nodes}
}
