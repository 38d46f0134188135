package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HarnessMetrics provides Prometheus-compatible metrics for harness activity
type HarnessMetrics struct {
	// Node lifecycle metrics
	nodesRunning prometheus.Gauge
	nodeStarts   prometheus.Counter
	nodeStops    prometheus.Counter
	nodeCrashes  prometheus.Counter

	// Shutdown fault metrics
	shutdownFaults prometheus.Counter

	// Deployment metrics
	componentsRegistered prometheus.Gauge
	componentOps         *prometheus.CounterVec

	// Topology metrics
	clustersDefined       prometheus.Gauge
	topologyNotifications *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewHarnessMetrics creates a new harness metrics instance
func NewHarnessMetrics(namespace string) *HarnessMetrics {
	if namespace == "" {
		namespace = "mockgrid"
	}

	m := &HarnessMetrics{
		registry: prometheus.NewRegistry(),
	}

	m.initNodeMetrics(namespace)
	m.initDeploymentMetrics(namespace)
	m.initTopologyMetrics(namespace)
	m.registerMetrics()

	return m
}

func (m *HarnessMetrics) initNodeMetrics(namespace string) {
	m.nodesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_running",
			Help:      "Number of nodes currently started",
		},
	)

	m.nodeStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_starts_total",
			Help:      "Total number of node start operations",
		},
	)

	m.nodeStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_stops_total",
			Help:      "Total number of graceful node stops",
		},
	)

	m.nodeCrashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_crashes_total",
			Help:      "Total number of fail-stop node crashes",
		},
	)

	m.shutdownFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutdown_faults_total",
			Help:      "Total number of absorbed shutdown faults",
		},
	)
}

func (m *HarnessMetrics) initDeploymentMetrics(namespace string) {
	m.componentsRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components_registered",
			Help:      "Number of components currently registered across all nodes",
		},
	)

	m.componentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_registrations_total",
			Help:      "Total number of component registry operations",
		},
		[]string{"op"},
	)
}

func (m *HarnessMetrics) initTopologyMetrics(namespace string) {
	m.clustersDefined = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clusters_defined",
			Help:      "Number of clusters currently defined across all nodes",
		},
	)

	m.topologyNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topology_notifications_total",
			Help:      "Total number of topology notifications delivered to listeners",
		},
		[]string{"type"},
	)
}

func (m *HarnessMetrics) registerMetrics() {
	m.registry.MustRegister(m.nodesRunning)
	m.registry.MustRegister(m.nodeStarts)
	m.registry.MustRegister(m.nodeStops)
	m.registry.MustRegister(m.nodeCrashes)
	m.registry.MustRegister(m.shutdownFaults)
	m.registry.MustRegister(m.componentsRegistered)
	m.registry.MustRegister(m.componentOps)
	m.registry.MustRegister(m.clustersDefined)
	m.registry.MustRegister(m.topologyNotifications)
}

// Public methods for recording metrics

// RecordNodeStarted records a successful node start
func (m *HarnessMetrics) RecordNodeStarted() {
	m.nodeStarts.Inc()
	m.nodesRunning.Inc()
}

// RecordNodeStopped records a graceful stop that transitioned a running node
func (m *HarnessMetrics) RecordNodeStopped() {
	m.nodeStops.Inc()
	m.nodesRunning.Dec()
}

// RecordNodeCrashed records a fail-stop that transitioned a running node
func (m *HarnessMetrics) RecordNodeCrashed() {
	m.nodeCrashes.Inc()
	m.nodesRunning.Dec()
}

// RecordShutdownFault records an absorbed shutdown fault
func (m *HarnessMetrics) RecordShutdownFault() {
	m.shutdownFaults.Inc()
}

// RecordComponentRegistered records a component registration
func (m *HarnessMetrics) RecordComponentRegistered() {
	m.componentOps.WithLabelValues("register").Inc()
	m.componentsRegistered.Inc()
}

// RecordComponentUnregistered records a component unregistration
func (m *HarnessMetrics) RecordComponentUnregistered() {
	m.componentOps.WithLabelValues("unregister").Inc()
	m.componentsRegistered.Dec()
}

// SetComponentsRegistered sets the current component count
func (m *HarnessMetrics) SetComponentsRegistered(count int) {
	m.componentsRegistered.Set(float64(count))
}

// SetClustersDefined sets the current cluster count
func (m *HarnessMetrics) SetClustersDefined(count int) {
	m.clustersDefined.Set(float64(count))
}

// RecordTopologyNotification records one listener notification of the given type
func (m *HarnessMetrics) RecordTopologyNotification(notificationType string) {
	m.topologyNotifications.WithLabelValues(notificationType).Inc()
}

// GetRegistry returns the Prometheus registry
func (m *HarnessMetrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// GetHTTPHandler returns an HTTP handler for the metrics endpoint
func (m *HarnessMetrics) GetHTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
