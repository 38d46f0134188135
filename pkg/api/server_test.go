package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meftunca/mockgrid/pkg/config"
	"github.com/meftunca/mockgrid/pkg/harness"
	"github.com/meftunca/mockgrid/pkg/topology"
	"github.com/meftunca/mockgrid/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *harness.Harness) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.EnableLogger = false

	h := harness.New(cfg.Harness)
	server := NewServer(cfg.API, h, nil)
	return server, h
}

func doJSON(t *testing.T, server *Server, method, target string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 4, health.NodeCount)
	assert.Zero(t, health.NodesRunning)
}

func TestVersionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "GET", "/version", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info map[string]string
	decode(t, resp, &info)
	assert.Equal(t, "mockgrid", info["name"])
	assert.NotEmpty(t, info["version"])
}

func TestStartNodeEndpoint(t *testing.T) {
	server, h := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/start", StartNodeRequest{
		Host: "localhost", Port: 6999,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var nodeResp NodeResponse
	decode(t, resp, &nodeResp)
	assert.True(t, nodeResp.Started)
	assert.Equal(t, types.NodeName("node1"), nodeResp.Name)
	require.NotNil(t, nodeResp.Info)
	assert.Equal(t, 6999, nodeResp.Info.Port)

	assert.True(t, h.IsStarted(0))
}

func TestStartNodeDefaults(t *testing.T) {
	server, h := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/v1/nodes/1/start", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, h.IsStarted(1))

	info, err := h.NodeInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 7099, info.Port)
}

func TestStartNodeOutOfRangeReturns400(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/v1/nodes/9/start", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, types.ErrCodeConfiguration, errResp.Code)
}

func TestStopNodeEndpoint(t *testing.T) {
	server, h := newTestServer(t)
	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))

	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stopResp StopNodeResponse
	decode(t, resp, &stopResp)
	assert.True(t, stopResp.Stopped)
	assert.Empty(t, stopResp.Fault)
	assert.False(t, h.IsStarted(0))

	// already stopped: still 200, no-op
	resp = doJSON(t, server, "POST", "/api/v1/nodes/0/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &stopResp)
	assert.False(t, stopResp.Stopped)
}

func TestRegisterEndpoint(t *testing.T) {
	server, h := newTestServer(t)
	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))

	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/components", RegisterComponentRequest{
		AppName:       "my-foo-app",
		ModuleName:    "my-bar-module",
		ComponentName: "StatelessEcho",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, ok, err := h.Lookup(0, types.NewComponentKey("my-foo-app", "my-bar-module", "", "StatelessEcho"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterAgainstStoppedNodeReturns409(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/components", RegisterComponentRequest{
		AppName:       "my-foo-app",
		ModuleName:    "my-bar-module",
		ComponentName: "StatelessEcho",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, types.ErrCodeNodeNotStarted, errResp.Code)
}

func TestUnregisterEndpoint(t *testing.T) {
	server, h := newTestServer(t)
	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))
	require.NoError(t, h.Register(0, "my-foo-app", "my-bar-module", "", "StatelessEcho", "echo"))

	resp := doJSON(t, server, "DELETE",
		"/api/v1/nodes/0/components?app_name=my-foo-app&module_name=my-bar-module&component_name=StatelessEcho", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok, err := h.Lookup(0, types.NewComponentKey("my-foo-app", "my-bar-module", "", "StatelessEcho"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClusterEndpoints(t *testing.T) {
	server, h := newTestServer(t)
	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))

	define := types.NewClusterInfo("ejb",
		types.NewNodeInfo("node1", "localhost", 6999),
		types.NewNodeInfo("node2", "localhost", 7099))
	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/clusters", define)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	add := types.NewClusterInfo("ejb", types.NewNodeInfo("node3", "localhost", 7199))
	resp = doJSON(t, server, "PUT", "/api/v1/nodes/0/clusters", add)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, server, "POST", "/api/v1/nodes/0/clusters/ejb/remove-nodes", RemoveClusterNodesRequest{
		Nodes: []types.NodeName{"node2", "ghost"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, server, "GET", "/api/v1/nodes/0/clusters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var clusters []types.ClusterInfo
	decode(t, resp, &clusters)
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []types.NodeName{"node1", "node3"}, clusters[0].MemberNames())

	resp = doJSON(t, server, "DELETE", "/api/v1/nodes/0/clusters/ejb", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	clustersAfter, err := h.Clusters(0)
	require.NoError(t, err)
	assert.Empty(t, clustersAfter)
}

func TestDefineClusterRequiresName(t *testing.T) {
	server, h := newTestServer(t)
	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))

	resp := doJSON(t, server, "POST", "/api/v1/nodes/0/clusters", types.ClusterInfo{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNodeIndexMustBeNumeric(t *testing.T) {
	server, h := newTestServer(t)

	resp := doJSON(t, server, "POST", "/api/v1/nodes/abc/start", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, types.ErrCodeInvalidConfig, errResp.Code)

	// a bad index must not fall through to slot 0
	assert.False(t, h.IsStarted(0))

	require.NoError(t, h.StartNodeWithDefaults(context.Background(), 0))
	resp = doJSON(t, server, "POST", "/api/v1/nodes/xyz/crash", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, h.IsStarted(0))
}

func TestTopologyFeedImplementsListener(t *testing.T) {
	var _ topology.Listener = NewTopologyFeed(nil)
}

func TestTopologyFeedDropsWhenStopped(t *testing.T) {
	feed := NewTopologyFeed(nil)

	// not started: publishing must not block or panic
	feed.ClusterDefined(types.NewClusterInfo("ejb"))
	feed.ClusterRemoved("ejb")

	feed.Start()
	feed.ClusterNodesRemoved(types.NewClusterRemovalInfo("ejb", "node1"))
	feed.Stop()
	assert.Zero(t, feed.ClientCount())
}
