package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"returns-service/internal/middleware"
	"returns-service/internal/models"
	"returns-service/internal/repository"
	"returns-service/internal/services"
)

type ReturnHandlers struct {
	returnService *services.ReturnService
	slipService   *services.SlipService
}

func NewReturnHandlers(returnService *services.ReturnService, slipService *services.SlipService) *ReturnHandlers {
	return &ReturnHandlers{
		returnService: returnService,
		slipService:   slipService,
	}
}

// respondError maps service errors onto HTTP status codes. Every
// handler funnels errors through here so the taxonomy stays in one
// place.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var transitionErr *models.InvalidTransitionError

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Return request not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "field": validationErr.Field, "message": validationErr.Message})
	case errors.Is(err, services.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid decision", "message": "decision must be 'approved' or 'rejected'"})
	case errors.Is(err, services.ErrSubOrderNotReturnable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Sub-order is not returnable", "details": err.Error()})
	case errors.Is(err, services.ErrWindowExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Return window has expired"})
	case errors.Is(err, services.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "An active return request already exists for this sub-order"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition", "details": transitionErr.Error()})
	case errors.Is(err, repository.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Return request was modified concurrently", "message": "reload and retry"})
	case errors.Is(err, services.ErrSlipUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Return slip not available", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid return request ID"})
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

func parseStatusFilter(c *gin.Context) *models.ReturnStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	status := models.ReturnStatus(raw)
	return &status
}

// Customer endpoints

// CreateReturn opens a new return request
// @Summary Create return request
// @Description Customer opens a return request against a delivered sub-order
// @Tags Returns
// @Accept json
// @Produce json
// @Param return body services.CreateReturnRequestInput true "Return request"
// @Success 201 {object} models.ReturnRequest
// @Router /api/v1/my/returns [post]
func (h *ReturnHandlers) CreateReturn(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input services.CreateReturnRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	req, err := h.returnService.CreateReturnRequest(c.Request.Context(), customerID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListMyReturns lists the customer's return requests
// @Summary List my return requests
// @Tags Returns
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} services.PagedReturnRequests
// @Router /api/v1/my/returns [get]
func (h *ReturnHandlers) ListMyReturns(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.returnService.ListCustomerReturnRequests(c.Request.Context(), customerID, parseStatusFilter(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyReturn retrieves one of the customer's return requests
// @Summary Get my return request
// @Tags Returns
// @Produce json
// @Param id path string true "Return request ID"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/my/returns/{id} [get]
func (h *ReturnHandlers) GetMyReturn(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := h.returnService.GetCustomerReturnRequest(c.Request.Context(), id, customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

type customerStatusUpdateRequest struct {
	Status models.ReturnStatus `json:"status" binding:"required"`
	services.CustomerUpdateInput
}

// UpdateMyReturnStatus cancels the request or confirms return shipping
// @Summary Update my return request status
// @Description Cancel an open request or confirm return shipping with a tracking number
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return request ID"
// @Param update body customerStatusUpdateRequest true "Status update"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/my/returns/{id}/status [patch]
func (h *ReturnHandlers) UpdateMyReturnStatus(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body customerStatusUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	req, err := h.returnService.UpdateStatusByCustomer(c.Request.Context(), id, customerID, body.Status, body.CustomerUpdateInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// EscalateReturn appeals a rejected request to marketplace admins
// @Summary Escalate a rejected return request
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return request ID"
// @Param escalation body services.EscalationInput true "Escalation"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/my/returns/{id}/escalate [post]
func (h *ReturnHandlers) EscalateReturn(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var input services.EscalationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	req, err := h.returnService.EscalateToAdmin(c.Request.Context(), id, customerID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// DownloadReturnSlip renders the printable return slip PDF
// @Summary Download return slip
// @Tags Returns
// @Produce application/pdf
// @Param id path string true "Return request ID"
// @Success 200 {file} binary
// @Router /api/v1/my/returns/{id}/slip [get]
func (h *ReturnHandlers) DownloadReturnSlip(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := h.returnService.GetCustomerReturnRequest(c.Request.Context(), id, customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	pdf, err := h.slipService.GenerateReturnSlip(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=return-slip-"+req.RequestNumber+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Shop endpoints

// ListShopReturns lists return requests addressed to the shop
// @Summary List shop return requests
// @Tags Shop Returns
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} services.PagedReturnRequests
// @Router /api/v1/shop/returns [get]
func (h *ReturnHandlers) ListShopReturns(c *gin.Context) {
	shopID, ok := middleware.GetShopID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.returnService.ListShopReturnRequests(c.Request.Context(), shopID, parseStatusFilter(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetShopReturn retrieves one return request addressed to the shop
// @Summary Get shop return request
// @Tags Shop Returns
// @Produce json
// @Param id path string true "Return request ID"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/shop/returns/{id} [get]
func (h *ReturnHandlers) GetShopReturn(c *gin.Context) {
	shopID, ok := middleware.GetShopID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := h.returnService.GetShopReturnRequest(c.Request.Context(), id, shopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

type shopStatusUpdateRequest struct {
	Status models.ReturnStatus `json:"status" binding:"required"`
	services.ShopUpdateInput
}

// UpdateShopReturnStatus moves a request along a shop-owned edge
// @Summary Update return request status as the shop
// @Description Approve, reject, confirm receipt, start refunding, record the refund or complete
// @Tags Shop Returns
// @Accept json
// @Produce json
// @Param id path string true "Return request ID"
// @Param update body shopStatusUpdateRequest true "Status update"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/shop/returns/{id}/status [patch]
func (h *ReturnHandlers) UpdateShopReturnStatus(c *gin.Context) {
	shopID, ok := middleware.GetShopID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body shopStatusUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	req, err := h.returnService.UpdateStatusByShop(c.Request.Context(), id, shopID, body.Status, body.ShopUpdateInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// GetShopReturnStats aggregates the shop's return activity
// @Summary Shop return statistics
// @Tags Shop Returns
// @Produce json
// @Success 200 {object} repository.ShopReturnStats
// @Router /api/v1/shop/returns/stats [get]
func (h *ReturnHandlers) GetShopReturnStats(c *gin.Context) {
	shopID, ok := middleware.GetShopID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	stats, err := h.returnService.GetShopStats(c.Request.Context(), shopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Admin endpoints

// ListEscalations lists the admin dispute queue
// @Summary List escalated return requests
// @Tags Admin Returns
// @Produce json
// @Param status query string false "Status filter"
// @Param all query bool false "Include requests already resolved by an admin"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} services.PagedReturnRequests
// @Router /api/v1/admin/returns/escalations [get]
func (h *ReturnHandlers) ListEscalations(c *gin.Context) {
	if _, ok := middleware.GetAdminID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	adminScope, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	page, limit := parsePagination(c)
	result, err := h.returnService.ListEscalatedReturnRequests(c.Request.Context(), parseStatusFilter(c), adminScope, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAdminReturn retrieves any return request, platform-wide
// @Summary Get return request as admin
// @Tags Admin Returns
// @Produce json
// @Param id path string true "Return request ID"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/admin/returns/{id} [get]
func (h *ReturnHandlers) GetAdminReturn(c *gin.Context) {
	if _, ok := middleware.GetAdminID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := h.returnService.GetReturnRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

type resolutionRequest struct {
	Decision string `json:"decision" binding:"required"`
	services.ResolutionInput
}

// ResolveEscalation records the admin's binding decision
// @Summary Resolve an escalated return request
// @Tags Admin Returns
// @Accept json
// @Produce json
// @Param id path string true "Return request ID"
// @Param resolution body resolutionRequest true "Resolution"
// @Success 200 {object} models.ReturnRequest
// @Router /api/v1/admin/returns/{id}/resolve [post]
func (h *ReturnHandlers) ResolveEscalation(c *gin.Context) {
	adminID, ok := middleware.GetAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body resolutionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	req, err := h.returnService.ResolveEscalation(c.Request.Context(), id, adminID, body.Decision, body.ResolutionInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Public endpoints

// ListReturnReasons returns the reason catalog
// @Summary List return reasons
// @Tags Returns
// @Produce json
// @Success 200 {object} map[string]models.ReasonInfo
// @Router /api/v1/returns/reasons [get]
func (h *ReturnHandlers) ListReturnReasons(c *gin.Context) {
	c.JSON(http.StatusOK, models.ReasonCatalog())
}
