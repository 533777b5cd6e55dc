package ledger

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wind-walker-open-source/forge-ledger/common"
	"github.com/wind-walker-open-source/forge-ledger/internal/dto"
	"github.com/wind-walker-open-source/forge-ledger/middleware"
)

type LedgerHandler struct {
	service LedgerServiceInterface
}

func NewLedgerHandler(s LedgerServiceInterface) *LedgerHandler {
	return &LedgerHandler{service: s}
}

var _ LedgerHandlerInterface = (*LedgerHandler)(nil)

// RegisterRoutes wires the handler onto a gin router, one route per ledger
// operation.
func (h *LedgerHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/jobs", h.CreateJob)
	r.GET("/jobs/:id", h.GetJob)
	r.POST("/jobs/:id/items", h.RegisterItems)
	r.GET("/jobs/:id/items", h.GetItems)
	r.POST("/jobs/:id/items/:itemId/claim", h.ClaimItem)
	r.POST("/jobs/:id/items/:itemId/complete", h.CompleteItem)
	r.POST("/jobs/:id/items/:itemId/fail", h.FailItem)
	r.POST("/jobs/:id/items/:itemId/retry", h.RetryItem)
}

// CreateJob handles HTTP requests for creating a new job.
// It validates and binds the request body, delegates to the ledger service,
// and returns HTTP 201 with the created job on success.
func (h *LedgerHandler) CreateJob(c *gin.Context) {
	var req dto.JobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetJob handles HTTP requests to fetch a job by its ID.
func (h *LedgerHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid job ID"})
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// RegisterItems handles HTTP requests to register a batch of item ids on a
// job. Registration is idempotent; the response reports how many ids were
// new versus already present.
func (h *LedgerHandler) RegisterItems(c *gin.Context) {
	var req dto.RegisterItemsDTO
	if !middleware.Bind(c, &req) {
		return
	}

	resp, err := h.service.RegisterItems(c.Request.Context(), c.Param("id"), req.ItemIDs)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ClaimItem handles HTTP requests by a worker to take ownership of an item.
// A claim that loses the race or targets a non-PENDING item gets HTTP 409.
func (h *LedgerHandler) ClaimItem(c *gin.Context) {
	resp, err := h.service.ClaimItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteItem handles HTTP requests to report successful processing of an
// item. Returns the refreshed job, which may have just turned terminal.
func (h *LedgerHandler) CompleteItem(c *gin.Context) {
	job, err := h.service.CompleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// FailItem handles HTTP requests to report failed processing of an item,
// with a required reason and optional detail.
func (h *LedgerHandler) FailItem(c *gin.Context) {
	var req dto.FailItemDTO
	if !middleware.Bind(c, &req) {
		return
	}

	job, err := h.service.FailItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Reason, req.Detail)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// RetryItem handles HTTP requests to move a FAILED item back to PENDING.
func (h *LedgerHandler) RetryItem(c *gin.Context) {
	job, err := h.service.RetryItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetItems handles HTTP requests to list a job's items with optional status
// filter, limit, and continuation token.
func (h *LedgerHandler) GetItems(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.Error(common.Validationf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	resp, err := h.service.GetItems(
		c.Request.Context(),
		c.Param("id"),
		c.Query("status"),
		limit,
		c.Query("next_token"),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
