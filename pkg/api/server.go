package api

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/meftunca/mockgrid/pkg/config"
	"github.com/meftunca/mockgrid/pkg/harness"
	"github.com/meftunca/mockgrid/pkg/types"
	"github.com/meftunca/mockgrid/pkg/version"
)

// Server exposes the driver-facing harness surface over HTTP: node
// lifecycle, component deployment, and cluster topology operations, plus a
// WebSocket feed of topology notifications.
type Server struct {
	app     *fiber.App
	harness *harness.Harness
	feed    *TopologyFeed
	cfg     config.APIConfig
	log     *zap.Logger

	requestCount int64
	errorCount   int64
	startTime    time.Time
}

// NewServer creates the API server around an existing harness. The returned
// server's Feed() should be attached to the harness via AddListener so
// topology notifications reach WebSocket subscribers.
func NewServer(cfg config.APIConfig, h *harness.Harness, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ServerHeader: "mockgrid",
		AppName:      "mockgrid harness API",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	s := &Server{
		app:       app,
		harness:   h,
		feed:      NewTopologyFeed(log),
		cfg:       cfg,
		log:       log,
		startTime: time.Now(),
	}

	s.setupMiddlewares()
	s.setupRoutes()
	return s
}

// Feed returns the WebSocket topology broadcaster.
func (s *Server) Feed() *TopologyFeed {
	return s.feed
}

// App returns the underlying Fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) setupMiddlewares() {
	if s.cfg.EnableRequestID {
		s.app.Use(requestid.New())
	}
	if s.cfg.EnableLogger {
		s.app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
			TimeFormat: "2006/01/02 15:04:05",
			TimeZone:   "Local",
		}))
	}
	if s.cfg.EnableRecover {
		s.app.Use(recover.New())
	}
	if s.cfg.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With",
		}))
	}

	s.app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		atomic.AddInt64(&s.requestCount, 1)
		if err != nil {
			atomic.AddInt64(&s.errorCount, 1)
		}
		return err
	})
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/version", s.handleVersion)

	s.app.Get("/ws/topology", websocket.New(s.feed.handleConnection))

	v1 := s.app.Group("/api/v1")
	v1.Get("/stats", s.handleStats)
	v1.Get("/nodes", s.handleListNodes)
	v1.Get("/nodes/:index", s.handleGetNode)
	v1.Post("/nodes/:index/start", s.handleStartNode)
	v1.Post("/nodes/:index/stop", s.handleStopNode)
	v1.Post("/nodes/:index/crash", s.handleCrashNode)
	v1.Post("/nodes/:index/components", s.handleRegister)
	v1.Delete("/nodes/:index/components", s.handleUnregister)
	v1.Get("/nodes/:index/clusters", s.handleListClusters)
	v1.Post("/nodes/:index/clusters", s.handleDefineCluster)
	v1.Put("/nodes/:index/clusters", s.handleAddClusterNodes)
	v1.Post("/nodes/:index/clusters/:name/remove-nodes", s.handleRemoveClusterNodes)
	v1.Delete("/nodes/:index/clusters/:name", s.handleRemoveCluster)
}

// Start starts the API server and the topology feed hub.
func (s *Server) Start() error {
	s.feed.Start()
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("starting harness API", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Stop gracefully stops the API server and the feed hub.
func (s *Server) Stop() error {
	s.feed.Stop()
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	running := 0
	for i := 0; i < s.harness.NodeCount(); i++ {
		if s.harness.IsStarted(i) {
			running++
		}
	}
	return c.JSON(HealthResponse{
		Status:       "healthy",
		Version:      version.Version,
		Uptime:       time.Since(s.startTime),
		NodeCount:    s.harness.NodeCount(),
		NodesRunning: running,
	})
}

func (s *Server) handleVersion(c *fiber.Ctx) error {
	return c.JSON(version.GetVersionInfo())
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	running := 0
	for i := 0; i < s.harness.NodeCount(); i++ {
		if s.harness.IsStarted(i) {
			running++
		}
	}
	return c.JSON(StatsResponse{
		Uptime:        time.Since(s.startTime).Seconds(),
		RequestsTotal: atomic.LoadInt64(&s.requestCount),
		ErrorsTotal:   atomic.LoadInt64(&s.errorCount),
		NodeCount:     s.harness.NodeCount(),
		NodesRunning:  running,
		FeedClients:   s.feed.ClientCount(),
	})
}

func (s *Server) handleListNodes(c *fiber.Ctx) error {
	nodes := make([]NodeResponse, 0, s.harness.NodeCount())
	for i := 0; i < s.harness.NodeCount(); i++ {
		nodes = append(nodes, s.nodeResponse(i))
	}
	return c.JSON(nodes)
}

func (s *Server) handleGetNode(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}
	return c.JSON(s.nodeResponse(index))
}

func (s *Server) nodeResponse(index int) NodeResponse {
	name, _ := s.harness.NodeName(index)
	resp := NodeResponse{
		Index:   index,
		Name:    name,
		Started: s.harness.IsStarted(index),
	}
	if resp.Started {
		if info, err := s.harness.NodeInfo(index); err == nil {
			resp.Info = &info
		}
		if components, err := s.harness.Components(index); err == nil {
			resp.Components = components
		}
		if clusters, err := s.harness.Clusters(index); err == nil {
			resp.Clusters = clusters
		}
	}
	return resp
}

func (s *Server) handleStartNode(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	var req StartNodeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return s.badRequest(c, "invalid request body")
		}
	}

	var err error
	if req.Host == "" && req.Port == 0 {
		err = s.harness.StartNodeWithDefaults(c.Context(), index)
	} else {
		err = s.harness.StartNode(c.Context(), index, req.Host, req.Port, req.TxService)
	}
	if err != nil {
		return s.harnessError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.nodeResponse(index))
}

func (s *Server) handleStopNode(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}
	result, err := s.harness.StopNode(index)
	if err != nil {
		return s.harnessError(c, err)
	}
	return c.JSON(stopResponse(result.Stopped, result.Fault))
}

func (s *Server) handleCrashNode(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}
	result, err := s.harness.CrashNode(index)
	if err != nil {
		return s.harnessError(c, err)
	}
	return c.JSON(stopResponse(result.Stopped, result.Fault))
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	var req RegisterComponentRequest
	if err := c.BodyParser(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}
	if req.AppName == "" || req.ModuleName == "" || req.ComponentName == "" {
		return s.badRequest(c, "app_name, module_name and component_name are required")
	}

	instance := req.Instance
	if instance == nil {
		instance = struct{}{}
	}
	if err := s.harness.Register(index, req.AppName, req.ModuleName, req.DistinctName, req.ComponentName, instance); err != nil {
		return s.harnessError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) handleUnregister(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	app := c.Query("app_name")
	module := c.Query("module_name")
	distinct := c.Query("distinct_name")
	component := c.Query("component_name")
	if app == "" || module == "" || component == "" {
		return s.badRequest(c, "app_name, module_name and component_name are required")
	}

	if err := s.harness.Unregister(index, app, module, distinct, component); err != nil {
		return s.harnessError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListClusters(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}
	clusters, err := s.harness.Clusters(index)
	if err != nil {
		return s.harnessError(c, err)
	}
	return c.JSON(clusters)
}

func (s *Server) handleDefineCluster(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	cluster, ok := s.parseCluster(c)
	if !ok {
		return s.badRequest(c, "cluster name is required")
	}
	if err := s.harness.DefineCluster(index, cluster); err != nil {
		return s.harnessError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cluster)
}

func (s *Server) handleAddClusterNodes(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	cluster, ok := s.parseCluster(c)
	if !ok {
		return s.badRequest(c, "cluster name is required")
	}
	if err := s.harness.AddClusterNodes(index, cluster); err != nil {
		return s.harnessError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) handleRemoveClusterNodes(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}

	var req RemoveClusterNodesRequest
	if err := c.BodyParser(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}

	removal := types.NewClusterRemovalInfo(types.ClusterName(c.Params("name")), req.Nodes...)
	if err := s.harness.RemoveClusterNodes(index, removal); err != nil {
		return s.harnessError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) handleRemoveCluster(c *fiber.Ctx) error {
	index, ok := s.nodeIndex(c)
	if !ok {
		return s.badRequest(c, "node index must be an integer")
	}
	if err := s.harness.RemoveCluster(index, types.ClusterName(c.Params("name"))); err != nil {
		return s.harnessError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) parseCluster(c *fiber.Ctx) (types.ClusterInfo, bool) {
	var body types.ClusterInfo
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return types.ClusterInfo{}, false
	}
	return types.NewClusterInfo(body.Name, body.Members...), true
}

func (s *Server) nodeIndex(c *fiber.Ctx) (int, bool) {
	index, err := strconv.Atoi(c.Params("index"))
	return index, err == nil
}

func (s *Server) badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Code:    types.ErrCodeInvalidConfig,
		Message: message,
	})
}

// harnessError maps harness error codes onto HTTP statuses: configuration
// errors are the driver's fault (400), operations against a stopped node
// conflict with its lifecycle state (409).
func (s *Server) harnessError(c *fiber.Ctx, err error) error {
	var gridErr *types.GridError
	if errors.As(err, &gridErr) {
		status := fiber.StatusInternalServerError
		switch gridErr.Code {
		case types.ErrCodeConfiguration, types.ErrCodeInvalidConfig:
			status = fiber.StatusBadRequest
		case types.ErrCodeNodeNotStarted:
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(ErrorResponse{Code: gridErr.Code, Message: gridErr.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	})
}

func stopResponse(stopped bool, fault error) StopNodeResponse {
	resp := StopNodeResponse{Stopped: stopped}
	if fault != nil {
		resp.Fault = fault.Error()
	}
	return resp
}
