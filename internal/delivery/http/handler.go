package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
	"github.com/allergenapp/backend/internal/infrastructure/vision"
	"github.com/allergenapp/backend/internal/usecase"
)

// DefaultMaxImageBytes caps label uploads when no limit is configured
const DefaultMaxImageBytes = 8 << 20

// HandlerDeps holds the services the HTTP handlers call
type HandlerDeps struct {
	Scans         *usecase.ScanService
	Profiles      *usecase.ProfileService
	Ledger        *usecase.HistoryLedger
	Suggester     *usecase.AlternativeSuggester
	MaxImageBytes int64
	Logger        *zap.Logger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scans         *usecase.ScanService
	profiles      *usecase.ProfileService
	ledger        *usecase.HistoryLedger
	suggester     *usecase.AlternativeSuggester
	maxImageBytes int64
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	suggester := deps.Suggester
	if suggester == nil {
		suggester = usecase.NewAlternativeSuggester(nil)
	}
	maxImageBytes := deps.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}

	return &Handler{
		scans:         deps.Scans,
		profiles:      deps.Profiles,
		ledger:        deps.Ledger,
		suggester:     suggester,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// BarcodeRequest is the body of a barcode scan
type BarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// SearchRequest is the body of a product name search
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// AllergensRequest replaces a user's allergen selection
type AllergensRequest struct {
	Allergens []string `json:"allergens"`
}

// HistoryResponse wraps a page of scan history
type HistoryResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
	Limit   int                   `json:"limit"`
}

// AlternativesResponse lists safe swaps for the requested allergens
type AlternativesResponse struct {
	Alternatives []domain.Alternative `json:"alternatives"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "allergenapp-backend",
		"version": "1.0.0",
	})
}

// ScanBarcode handles barcode scans
func (h *Handler) ScanBarcode(c *gin.Context) {
	var req BarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	verdict, err := h.scans.ScanBarcode(c.Request.Context(), c.Param("id"), req.Barcode)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// SearchProduct handles product name searches
func (h *Handler) SearchProduct(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	verdict, err := h.scans.SearchProduct(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// ScanLabel handles label photo uploads sent as the multipart field "image"
func (h *Handler) ScanLabel(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}

	mediaType := vision.DetectMediaType(image, header.Header.Get("Content-Type"))
	if len(image) > 0 && !vision.IsSupportedMediaType(mediaType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type " + mediaType})
		return
	}

	verdict, err := h.scans.ScanLabel(c.Request.Context(), c.Param("id"), image, mediaType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// History returns the user's recent scans, newest first
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	if limit == 0 {
		limit = h.ledger.DisplayLimit()
	}

	entries, err := h.ledger.Recent(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{Entries: entries, Limit: limit})
}

// GetAllergens returns the user's allergen profile
func (h *Handler) GetAllergens(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PutAllergens replaces the user's allergen selection
func (h *Handler) PutAllergens(c *gin.Context) {
	var req AllergensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	profile, err := h.profiles.UpdateAllergens(c.Request.Context(), c.Param("id"), req.Allergens)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListAllergens returns the common allergen vocabulary
func (h *Handler) ListAllergens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allergens": domain.CommonAllergens})
}

// Alternatives returns safe swaps for each ?allergen= value
func (h *Handler) Alternatives(c *gin.Context) {
	alternatives := h.suggester.Suggest(c.QueryArray("allergen"))
	if alternatives == nil {
		alternatives = []domain.Alternative{}
	}
	c.JSON(http.StatusOK, AlternativesResponse{Alternatives: alternatives})
}

// writeError maps domain errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "a scan is already in progress"})
	case errors.Is(err, domain.ErrAcquisitionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error fetching data."})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	case errors.Is(err, domain.ErrVisionDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "label scanning is not enabled"})
	default:
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
	_ = c.Error(err)
}
