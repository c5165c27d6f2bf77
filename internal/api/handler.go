// Package api exposes the listing generator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pipeline"
	"github.com/raine/listing-generator/internal/storage"
	"github.com/rs/zerolog/log"
)

// MaxUploadSize is the largest accepted photo upload.
const MaxUploadSize = 16 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

type Processor interface {
	Process(ctx context.Context, imagePath, filename string) *pipeline.Result
}

type ListingStore interface {
	ListListings() ([]storage.ListingSummary, error)
	GetListing(id int64) (*storage.Listing, error)
	UpdateListingStatus(id int64, status listing.Status) error
	DeleteListing(id int64) error
	Stats() (storage.Stats, error)
}

type Handler struct {
	processor     Processor
	store         ListingStore
	uploadDir     string
	maxUploadSize int64
}

func NewHandler(processor Processor, store ListingStore, uploadDir string) *Handler {
	return &Handler{
		processor:     processor,
		store:         store,
		uploadDir:     uploadDir,
		maxUploadSize: MaxUploadSize,
	}
}

// Upload accepts a photo in the "photo" form field, runs the pipeline on it
// and returns the pipeline result. The file is removed afterwards. Pipeline
// failures are reported in the body with status 200.
func (h *Handler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large. Max 16MB"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large. Max 16MB"})
		case errors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No photo provided"})
		default:
			log.Warn().Err(err).Msg("failed to read upload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "No photo provided"})
		}
		return
	}

	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Use JPG, PNG, or GIF"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", h.uploadDir).Msg("failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	path := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		log.Error().Err(err).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove upload")
		}
	}()

	filename := filepath.Base(fileHeader.Filename)
	log.Info().Str("filename", filename).Int64("size", fileHeader.Size).Msg("processing upload")

	result := h.processor.Process(c.Request.Context(), path, filename)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListListings(c *gin.Context) {
	listings, err := h.store.ListListings()
	if err != nil {
		log.Error().Err(err).Msg("failed to list listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) GetListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	l, err := h.store.GetListing(id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to get listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

type statusRequest struct {
	Status listing.Status `json:"status"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	err := h.store.UpdateListingStatus(id, req.Status)
	if errors.Is(err, storage.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to update listing status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	log.Info().Int64("id", id).Str("status", string(req.Status)).Msg("listing status updated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	err := h.store.DeleteListing(id)
	if errors.Is(err, storage.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to delete listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	log.Info().Int64("id", id).Msg("listing deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listingID parses the :id path parameter, answering 404 itself when it is
// not a number.
func listingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return 0, false
	}
	return id, true
}
