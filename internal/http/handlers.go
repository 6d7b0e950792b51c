package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"printflow/internal/domain"
	"printflow/internal/logger"
	"printflow/internal/repository"
	"printflow/internal/service"
	"printflow/internal/workflow"
)

type Server struct {
	engine    *gin.Engine
	orders    *service.OrderService
	products  *service.ProductService
	approvals *service.ApprovalService
	log       zerolog.Logger
}

func NewServer(orders *service.OrderService, products *service.ProductService, approvals *service.ApprovalService, log zerolog.Logger) *Server {
	r := gin.New()
	r.Use(logger.Middleware(log), gin.Recovery())
	s := &Server{engine: r, orders: orders, products: products, approvals: approvals, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := s.engine.Group("/api/v1", requireActor())
	{
		orders := v1.Group("/orders")
		orders.POST("", s.createOrder)
		orders.GET("", s.listOrders)
		orders.GET("/stream", s.streamOrders)
		orders.GET("/:id", s.getOrder)
		orders.GET("/:id/next-statuses", s.nextStatuses)
		orders.POST("/:id/transition", s.transitionOrder)
		orders.POST("/:id/payment", s.updatePayment)
		orders.POST("/:id/products/:pid/status", s.updateProductStatus)
		orders.POST("/:id/products/:pid/stages", s.setProductionStage)

		approvals := v1.Group("/approvals")
		approvals.GET("", s.listApprovals)
		approvals.POST("/:id/resolve", s.resolveApproval)
	}
}

// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param input body service.CreateOrderInput true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.CreateOrder(c, actorFrom(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List orders
// @Description Department roles only see orders assigned to their department
// @Tags orders
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param department query string false "Assigned department"
// @Param status query string false "Order status"
// @Param created_by query string false "Creator id"
// @Param q query string false "Client name contains"
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c, actorFrom(c), filterFromQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Stream order lists
// @Description Server-sent events: the current list first, then a fresh list after every relevant change
// @Tags orders
// @Produce text/event-stream
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param department query string false "Assigned department"
// @Param status query string false "Order status"
// @Success 200 {array} domain.Order
// @Router /orders/stream [get]
func (s *Server) streamOrders(c *gin.Context) {
	ctx := c.Request.Context()
	feed, err := s.orders.SubscribeOrders(ctx, actorFrom(c), filterFromQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case list, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent("orders", list)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrder(c, actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Statuses the actor may move the order to
// @Tags orders
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Order ID"
// @Success 200 {array} string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/next-statuses [get]
func (s *Server) nextStatuses(c *gin.Context) {
	next, err := s.orders.NextStatuses(c, actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if next == nil {
		next = []domain.OrderStatus{}
	}
	c.JSON(http.StatusOK, next)
}

type transitionReq struct {
	Status domain.OrderStatus `json:"status"`
	Note   string             `json:"note"`
}

// @Summary Transition order status
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Order ID"
// @Param input body transitionReq true "Target status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/transition [post]
func (s *Server) transitionOrder(c *gin.Context) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.TransitionOrder(c, actorFrom(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type paymentReq struct {
	Status domain.PaymentStatus `json:"status"`
	Note   string               `json:"note"`
}

// @Summary Update payment status
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Order ID"
// @Param input body paymentReq true "Payment status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /orders/{id}/payment [post]
func (s *Server) updatePayment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.UpdatePaymentStatus(c, actorFrom(c), c.Param("id"), req.Status, req.Note)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type productStatusReq struct {
	Field  domain.StatusField `json:"field"`
	Status domain.SubStatus   `json:"status"`
	Note   string             `json:"note"`
}

// @Summary Update product sub-status
// @Description pendingApproval opens an approval request, approved hands the order to the next department
// @Tags products
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param X-Actor-Department header string false "Actor department"
// @Param id path string true "Order ID"
// @Param pid path string true "Product ID"
// @Param input body productStatusReq true "Field and status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/products/{pid}/status [post]
func (s *Server) updateProductStatus(c *gin.Context) {
	var req productStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.products.UpdateProductStatus(c, actorFrom(c), c.Param("id"), c.Param("pid"), req.Field, req.Status, req.Note)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type stageReq struct {
	Stage domain.ProductionStage `json:"stage" example:"printing"`
	Done  bool                   `json:"done"`
}

// @Summary Mark production stage
// @Tags products
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Order ID"
// @Param pid path string true "Product ID"
// @Param input body stageReq true "Stage and done flag"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /orders/{id}/products/{pid}/stages [post]
func (s *Server) setProductionStage(c *gin.Context) {
	var req stageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.products.SetProductionStage(c, actorFrom(c), c.Param("id"), c.Param("pid"), req.Stage, req.Done)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Pending approvals visible to the actor
// @Tags approvals
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Success 200 {array} service.ApprovalItem
// @Router /approvals [get]
func (s *Server) listApprovals(c *gin.Context) {
	items, err := s.approvals.ListPendingApprovals(c, actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type resolveReq struct {
	Outcome domain.SubStatus `json:"outcome" example:"approved"`
	Note    string           `json:"note"`
}

// @Summary Resolve approval request
// @Tags approvals
// @Accept json
// @Produce json
// @Param X-Actor-ID header string true "Actor id"
// @Param X-Actor-Role header string true "Actor role"
// @Param id path string true "Approval ID"
// @Param input body resolveReq true "approved or needsRevision"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /approvals/{id}/resolve [post]
func (s *Server) resolveApproval(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.approvals.ResolveApproval(c, actorFrom(c), c.Param("id"), req.Outcome, req.Note)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func filterFromQuery(c *gin.Context) repository.OrderFilter {
	return repository.OrderFilter{
		Department:     domain.Department(c.Query("department")),
		Status:         domain.OrderStatus(c.Query("status")),
		CreatedBy:      c.Query("created_by"),
		ClientContains: c.Query("q"),
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrIdentityRequired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, workflow.ErrInvalidStatusValue),
		errors.Is(err, workflow.ErrFeedbackRequired):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrOrderNotFound),
		errors.Is(err, workflow.ErrProductNotFound),
		errors.Is(err, service.ErrApprovalNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrTransitionNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
