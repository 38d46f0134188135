package api

import (
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/topology"
	"github.com/meftunca/mockgrid/pkg/types"
)

const feedBufferSize = 256

// TopologyFeed is a topology.Listener that pushes every membership-change
// notification to subscribed WebSocket clients as uuid-tagged event
// envelopes. Attach it to the harness with AddListener. Notifications are
// handed off to the hub without blocking the topology operation; if the hub
// buffer is full the event is dropped for the feed (listeners get no
// delivery retries).
type TopologyFeed struct {
	log     *zap.Logger
	events  chan topology.Event
	done    chan struct{}
	running int32

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewTopologyFeed creates a feed hub. Call Start before serving connections.
func NewTopologyFeed(log *zap.Logger) *TopologyFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &TopologyFeed{
		log:     log,
		events:  make(chan topology.Event, feedBufferSize),
		done:    make(chan struct{}),
		clients: make(map[*websocket.Conn]bool),
	}
}

// Start launches the broadcast hub.
func (f *TopologyFeed) Start() {
	if !atomic.CompareAndSwapInt32(&f.running, 0, 1) {
		return
	}
	go f.run()
}

// Stop shuts the hub down and disconnects all clients.
func (f *TopologyFeed) Stop() {
	if !atomic.CompareAndSwapInt32(&f.running, 1, 0) {
		return
	}
	close(f.done)

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.Close()
	}
	f.clients = make(map[*websocket.Conn]bool)
}

// ClientCount returns the number of connected subscribers.
func (f *TopologyFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ClusterDefined implements topology.Listener
func (f *TopologyFeed) ClusterDefined(cluster types.ClusterInfo) {
	event := topology.NewEvent(topology.EventClusterDefined, "", cluster.Name)
	event.Members = cluster.Members
	f.publish(event)
}

// ClusterNodesAdded implements topology.Listener
func (f *TopologyFeed) ClusterNodesAdded(cluster types.ClusterInfo) {
	event := topology.NewEvent(topology.EventClusterNodesAdded, "", cluster.Name)
	event.Members = cluster.Members
	f.publish(event)
}

// ClusterNodesRemoved implements topology.Listener
func (f *TopologyFeed) ClusterNodesRemoved(removal types.ClusterRemovalInfo) {
	event := topology.NewEvent(topology.EventClusterNodesRemoved, "", removal.Name)
	event.Removed = removal.Nodes
	f.publish(event)
}

// ClusterRemoved implements topology.Listener
func (f *TopologyFeed) ClusterRemoved(name types.ClusterName) {
	f.publish(topology.NewEvent(topology.EventClusterRemoved, "", name))
}

func (f *TopologyFeed) publish(event topology.Event) {
	if atomic.LoadInt32(&f.running) == 0 {
		return
	}
	select {
	case f.events <- event:
	default:
		f.log.Warn("topology feed buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("cluster", string(event.Cluster)))
	}
}

func (f *TopologyFeed) run() {
	for {
		select {
		case event := <-f.events:
			f.broadcast(event)
		case <-f.done:
			return
		}
	}
}

func (f *TopologyFeed) broadcast(event topology.Event) {
	f.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for conn := range f.clients {
		conns = append(conns, conn)
	}
	f.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			f.log.Debug("dropping topology feed client", zap.Error(err))
			f.removeClient(conn)
			conn.Close()
		}
	}
}

// handleConnection serves one WebSocket subscriber until it disconnects.
// Inbound frames are discarded; the feed is push-only.
func (f *TopologyFeed) handleConnection(conn *websocket.Conn) {
	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()

	defer func() {
		f.removeClient(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *TopologyFeed) removeClient(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
}
