package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/identity"
	"github.com/RimaChaieb/tuniguard-api/internal/scan"
)

// scanSvc is the subset of scan.Service used by ScanHandler.
type scanSvc interface {
	Submit(ctx context.Context, req scan.Request) (*scan.Response, error)
	Batch(ctx context.Context, req scan.BatchRequest) (*scan.BatchResponse, error)
	Get(ctx context.Context, id int64) (*scan.Detail, error)
	SetUserAction(ctx context.Context, id int64, action scan.Action) error
}

// ScanHandler serves the scan endpoints.
type ScanHandler struct {
	svc        scanSvc
	userTokens *identity.UserTokenIssuer
	logger     *zap.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(svc scanSvc, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{svc: svc, logger: logger}
}

// SetUserTokenIssuer requires a session token on every scan route. Without
// it the routes are open, for development.
func (h *ScanHandler) SetUserTokenIssuer(ut *identity.UserTokenIssuer) {
	h.userTokens = ut
}

// Register registers ScanHandler routes on the given router group.
func (h *ScanHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/scan", identity.OptionalUserToken(h.userTokens))
	g.POST("", h.Submit)
	g.POST("/batch", h.Batch)
	g.GET("/:id", h.Get)
	g.POST("/:id/action", h.SetAction)
}

// Submit handles POST /scan.
func (h *ScanHandler) Submit(c *gin.Context) {
	var req scan.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !identity.ActingAs(c, req.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot scan on behalf of another user"})
		return
	}

	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		writeScanError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Batch handles POST /scan/batch.
func (h *ScanHandler) Batch(c *gin.Context) {
	var req scan.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !identity.ActingAs(c, req.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot scan on behalf of another user"})
		return
	}

	resp, err := h.svc.Batch(c.Request.Context(), req)
	if err != nil {
		writeScanError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /scan/:id.
func (h *ScanHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "scan")
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeScanError(c, h.logger, err)
		return
	}
	if !identity.ActingAs(c, d.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

type actionRequest struct {
	Action string `json:"action" binding:"required"`
}

// SetAction handles POST /scan/:id/action.
func (h *ScanHandler) SetAction(c *gin.Context) {
	id, ok := pathID(c, "scan")
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, claimed := identity.UserClaims(c); claimed {
		d, err := h.svc.Get(ctx, id)
		if err != nil {
			writeScanError(c, h.logger, err)
			return
		}
		if !identity.ActingAs(c, d.UserID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
	}

	if err := h.svc.SetUserAction(ctx, id, scan.Action(req.Action)); err != nil {
		writeScanError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan_id": id, "user_action": req.Action})
}

// pathID parses the :id parameter, answering 400 when it is not a positive
// integer.
func pathID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when it
// is absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
