package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appissue "github.com/wms/backend/internal/application/issue"
)

// GoodsIssueHandler handles goods issue HTTP endpoints
type GoodsIssueHandler struct {
	BaseHandler
	service *appissue.GoodsIssueService
}

// NewGoodsIssueHandler creates a new GoodsIssueHandler
func NewGoodsIssueHandler(service *appissue.GoodsIssueService) *GoodsIssueHandler {
	return &GoodsIssueHandler{service: service}
}

// RegisterRoutes registers goods issue routes
func (h *GoodsIssueHandler) RegisterRoutes(rg *gin.RouterGroup) {
	issues := rg.Group("/issues")
	{
		issues.POST("", h.Create)
		issues.GET("", h.List)
		issues.GET("/summary", h.StatusSummary)
		issues.GET("/:issue_number", h.Get)
		issues.PUT("/:issue_number", h.Update)
		issues.POST("/:issue_number/transitions", h.Transition)

		lines := issues.Group("/:issue_number/lines/:line_id")
		{
			lines.POST("/serials", h.AddSerial)
			lines.DELETE("/serials/:serial", h.RemoveSerial)
			lines.PUT("/lots/:lot_number", h.UpsertLotAllocation)
			lines.DELETE("/lots/:lot_number", h.RemoveLotAllocation)
			lines.PUT("/quantity", h.SetPickedQuantity)
		}
	}
}

// Create creates a new goods issue draft
// POST /api/v1/issues
func (h *GoodsIssueHandler) Create(c *gin.Context) {
	var req appissue.CreateGoodsIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.CreateDraft(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// List retrieves goods issues with filtering and pagination
// GET /api/v1/issues
func (h *GoodsIssueHandler) List(c *gin.Context) {
	var filter appissue.GoodsIssueListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// StatusSummary retrieves issue counts grouped by status
// GET /api/v1/issues/summary
func (h *GoodsIssueHandler) StatusSummary(c *gin.Context) {
	summary, err := h.service.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// Get retrieves a single goods issue by issue number
// GET /api/v1/issues/:issue_number
func (h *GoodsIssueHandler) Get(c *gin.Context) {
	resp, err := h.service.GetByNumber(c.Request.Context(), c.Param("issue_number"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update replaces the header and lines of a draft goods issue
// PUT /api/v1/issues/:issue_number
func (h *GoodsIssueHandler) Update(c *gin.Context) {
	var req appissue.UpdateGoodsIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), c.Param("issue_number"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Transition moves a goods issue to a new status
// POST /api/v1/issues/:issue_number/transitions
func (h *GoodsIssueHandler) Transition(c *gin.Context) {
	var req appissue.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Transition(c.Request.Context(), c.Param("issue_number"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddSerial captures a serial number on a SERIAL line
// POST /api/v1/issues/:issue_number/lines/:line_id/serials
func (h *GoodsIssueHandler) AddSerial(c *gin.Context) {
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req appissue.AddSerialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.AddSerial(c.Request.Context(), c.Param("issue_number"), lineID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveSerial removes a captured serial from a SERIAL line
// DELETE /api/v1/issues/:issue_number/lines/:line_id/serials/:serial
func (h *GoodsIssueHandler) RemoveSerial(c *gin.Context) {
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	resp, err := h.service.RemoveSerial(c.Request.Context(), c.Param("issue_number"), lineID, c.Param("serial"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpsertLotAllocation creates or replaces a lot allocation on a LOT line
// PUT /api/v1/issues/:issue_number/lines/:line_id/lots/:lot_number
func (h *GoodsIssueHandler) UpsertLotAllocation(c *gin.Context) {
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req appissue.UpsertLotAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.UpsertLotAllocation(c.Request.Context(), c.Param("issue_number"), lineID, c.Param("lot_number"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveLotAllocation removes a lot allocation from a LOT line
// DELETE /api/v1/issues/:issue_number/lines/:line_id/lots/:lot_number
func (h *GoodsIssueHandler) RemoveLotAllocation(c *gin.Context) {
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	resp, err := h.service.RemoveLotAllocation(c.Request.Context(), c.Param("issue_number"), lineID, c.Param("lot_number"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetPickedQuantity sets the picked quantity of an untracked line
// PUT /api/v1/issues/:issue_number/lines/:line_id/quantity
func (h *GoodsIssueHandler) SetPickedQuantity(c *gin.Context) {
	lineID, ok := h.lineID(c)
	if !ok {
		return
	}

	var req appissue.SetPickedQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.SetLinePickedQuantity(c.Request.Context(), c.Param("issue_number"), lineID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

func (h *GoodsIssueHandler) lineID(c *gin.Context) (uuid.UUID, bool) {
	lineID, err := uuid.Parse(c.Param("line_id"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID")
		return uuid.Nil, false
	}
	return lineID, true
}
