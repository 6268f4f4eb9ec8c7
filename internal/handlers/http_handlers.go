package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"spinwheel/internal/ingest"
	"spinwheel/internal/models"
	"spinwheel/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
)

const tenantKey = "tenantID"

// HTTPHandler holds the dependencies for the HTTP handlers, like the wheel service.
type HTTPHandler struct {
	service      *services.WheelService
	tenantCookie string
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.WheelService, tenantCookie string) *HTTPHandler {
	return &HTTPHandler{
		service:      service,
		tenantCookie: tenantCookie,
	}
}

// RegisterPublicRoutes registers routes that need no tenant.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
}

// RegisterTenantRoutes registers the wheel API. The group must run TenantMiddleware.
func (h *HTTPHandler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/api")
	api.GET("/state", h.GetState)
	api.GET("/entries", h.ListEntries)
	api.POST("/entries", h.AddEntry)
	api.POST("/entries/bulk", h.AddEntries)
	api.POST("/entries/duplicates", h.FindDuplicates)
	api.POST("/entries/csv", h.UploadEntriesCSV)
	api.POST("/entries/text", h.AddEntriesFromText)
	api.PUT("/entries", h.ReplaceEntries)
	api.PATCH("/entries/:id", h.RenameEntry)
	api.DELETE("/entries/:id", h.DeleteEntry)
	api.DELETE("/entries", h.ClearEntries)
	api.PUT("/settings", h.UpdateSettings)
	api.POST("/draw", h.Draw)
	api.POST("/draw/result", h.RecordResult)
	api.POST("/draw/undo", h.UndoDraw)
	api.POST("/coin", h.TossCoin)
	api.POST("/reset", h.Reset)
	api.DELETE("/history", h.ClearHistory)
	api.GET("/history.csv", h.ExportHistoryCSV)
	api.DELETE("/session", h.ClearSession)
}

// TenantMiddleware identifies the caller by cookie, issuing a new tenant id on first visit.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := c.Cookie(h.tenantCookie)
		if err != nil || tenantID == "" {
			tenantID = uuid.NewString()
			c.SetCookie(h.tenantCookie, tenantID, 0, "/", "", false, true)
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

func tenant(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// respondError maps engine errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNoUndoAvailable), errors.Is(err, services.ErrInvalidState):
		status = http.StatusConflict
	default:
		logger.Errorf("tenant %s: %s %s: %v", tenant(c), c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *HTTPHandler) do(c *gin.Context, fn func(*services.Session) error) bool {
	if err := h.service.Do(tenant(c), fn); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// GetState returns the full read model for rendering.
func (h *HTTPHandler) GetState(c *gin.Context) {
	var state models.SessionState
	if h.do(c, func(s *services.Session) error {
		state = s.State()
		return nil
	}) {
		c.JSON(http.StatusOK, state)
	}
}

// ListEntries returns the ordered entries with their colors.
func (h *HTTPHandler) ListEntries(c *gin.Context) {
	var entries []models.Entry
	if h.do(c, func(s *services.Session) error {
		entries = s.Entries()
		return nil
	}) {
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

// AddEntry adds a single entry.
func (h *HTTPHandler) AddEntry(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var entry models.Entry
	if h.do(c, func(s *services.Session) (err error) {
		entry, err = s.AddOne(req.Name)
		return err
	}) {
		c.JSON(http.StatusCreated, entry)
	}
}

type namesRequest struct {
	Names  []string `json:"names"`
	Choice string   `json:"choice"`
}

// bulkResult is the response for every batch import.
type bulkResult struct {
	Candidates []string       `json:"candidates"`
	Duplicates []string       `json:"duplicates"`
	Added      []models.Entry `json:"added"`
}

// addBatch runs the duplicate check and the chosen add under one lock so the
// duplicate set cannot go stale between the two.
func (h *HTTPHandler) addBatch(c *gin.Context, candidates []string, choice ingest.Choice) {
	result := bulkResult{Candidates: candidates}
	if h.do(c, func(s *services.Session) (err error) {
		result.Duplicates = s.FindDuplicates(candidates)
		result.Added, err = s.AddMany(ingest.Choose(candidates, result.Duplicates, choice))
		return err
	}) {
		c.JSON(http.StatusOK, result)
	}
}

// AddEntries adds a batch of names, honoring the duplicate choice.
func (h *HTTPHandler) AddEntries(c *gin.Context) {
	var req namesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	choice, err := ingest.ParseChoice(req.Choice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.addBatch(c, ingest.Filter(req.Names), choice)
}

// FindDuplicates reports which names are already on the wheel.
func (h *HTTPHandler) FindDuplicates(c *gin.Context) {
	var req namesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var dups []string
	if h.do(c, func(s *services.Session) error {
		dups = s.FindDuplicates(req.Names)
		return nil
	}) {
		c.JSON(http.StatusOK, gin.H{"duplicates": dups})
	}
}

// UploadEntriesCSV handles the CSV upload for entries.
func (h *HTTPHandler) UploadEntriesCSV(c *gin.Context) {
	choice, err := ingest.ParseChoice(c.PostForm("choice"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing csv file"})
		return
	}
	defer file.Close()

	names, err := ingest.ParseCSV(file)
	if err != nil {
		logger.Infof("Rejected CSV upload for tenant %s: %v", tenant(c), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.addBatch(c, names, choice)
}

type textRequest struct {
	Text   string `json:"text"`
	Choice string `json:"choice"`
}

// AddEntriesFromText adds one entry per line of recognized text.
func (h *HTTPHandler) AddEntriesFromText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	choice, err := ingest.ParseChoice(req.Choice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	names := ingest.ParseLines(req.Text)
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ingest.ErrNoCandidates.Error()})
		return
	}
	h.addBatch(c, names, choice)
}

type replaceRequest struct {
	Entries []models.Entry `json:"entries"`
}

// ReplaceEntries swaps the whole entry list.
func (h *HTTPHandler) ReplaceEntries(c *gin.Context) {
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var entries []models.Entry
	if h.do(c, func(s *services.Session) (err error) {
		entries, err = s.ReplaceAll(req.Entries)
		return err
	}) {
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// RenameEntry changes one entry's name.
func (h *HTTPHandler) RenameEntry(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var entry models.Entry
	if h.do(c, func(s *services.Session) (err error) {
		entry, err = s.Rename(c.Param("id"), req.Name)
		return err
	}) {
		c.JSON(http.StatusOK, entry)
	}
}

// DeleteEntry removes one entry.
func (h *HTTPHandler) DeleteEntry(c *gin.Context) {
	var entries []models.Entry
	if h.do(c, func(s *services.Session) error {
		if _, err := s.Remove(c.Param("id")); err != nil {
			return err
		}
		entries = s.Entries()
		return nil
	}) {
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// ClearEntries empties the wheel.
func (h *HTTPHandler) ClearEntries(c *gin.Context) {
	if h.do(c, func(s *services.Session) error {
		s.ClearAll()
		return nil
	}) {
		c.Status(http.StatusNoContent)
	}
}

type settingsRequest struct {
	Mode            *models.Mode `json:"mode"`
	RemoveAfterDraw *bool        `json:"removeAfterDraw"`
	SoundEnabled    *bool        `json:"soundEnabled"`
}

// UpdateSettings applies the fields present in the request.
func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var settings models.Settings
	if h.do(c, func(s *services.Session) error {
		if req.Mode != nil {
			if err := s.SetMode(*req.Mode); err != nil {
				return err
			}
		}
		if req.RemoveAfterDraw != nil {
			s.SetRemoveAfterDraw(*req.RemoveAfterDraw)
		}
		if req.SoundEnabled != nil {
			s.SetSoundEnabled(*req.SoundEnabled)
		}
		settings = s.Settings()
		return nil
	}) {
		c.JSON(http.StatusOK, settings)
	}
}

// Draw picks a winner and records it in one step; the client animates to the winner.
func (h *HTTPHandler) Draw(c *gin.Context) {
	var outcome models.DrawOutcome
	if h.do(c, func(s *services.Session) error {
		winner, err := s.Pick()
		if err != nil {
			return err
		}
		outcome, err = s.RecordDrawResult(winner)
		return err
	}) {
		c.JSON(http.StatusOK, outcome)
	}
}

// TossCoin flips a coin for the coin toss view.
func (h *HTTPHandler) TossCoin(c *gin.Context) {
	var side models.CoinSide
	if h.do(c, func(s *services.Session) error {
		side = s.TossCoin()
		return nil
	}) {
		c.JSON(http.StatusOK, gin.H{"result": side})
	}
}

type resultRequest struct {
	ID string `json:"id"`
}

// RecordResult records a winner chosen by the client.
func (h *HTTPHandler) RecordResult(c *gin.Context) {
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var outcome models.DrawOutcome
	if h.do(c, func(s *services.Session) (err error) {
		outcome, err = s.RecordDrawResult(models.Entry{ID: req.ID})
		return err
	}) {
		c.JSON(http.StatusOK, outcome)
	}
}

// UndoDraw puts the last drawn entry back on the wheel.
func (h *HTTPHandler) UndoDraw(c *gin.Context) {
	var entry models.Entry
	if h.do(c, func(s *services.Session) (err error) {
		entry, err = s.UndoLastDraw()
		return err
	}) {
		c.JSON(http.StatusOK, entry)
	}
}

// Reset restores the elimination round's starting entries.
func (h *HTTPHandler) Reset(c *gin.Context) {
	var entries []models.Entry
	if h.do(c, func(s *services.Session) (err error) {
		entries, err = s.ResetToSnapshot()
		return err
	}) {
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// ClearHistory forgets past draws.
func (h *HTTPHandler) ClearHistory(c *gin.Context) {
	if h.do(c, func(s *services.Session) error {
		s.ResetHistory()
		return nil
	}) {
		c.Status(http.StatusNoContent)
	}
}

// ExportHistoryCSV handles the request to download the draw history as a CSV file.
func (h *HTTPHandler) ExportHistoryCSV(c *gin.Context) {
	var history []models.DrawRecord
	if !h.do(c, func(s *services.Session) error {
		history = s.History()
		return nil
	}) {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=draw_history.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"#", "Entry ID", "Entry Name", "Drawn At"}); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}
	for i, rec := range history {
		row := []string{
			strconv.Itoa(i + 1),
			rec.Entry.ID,
			rec.Entry.Name,
			rec.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			logger.Errorf("Error writing CSV row: %v", err)
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}

// ClearSession drops everything stored for the caller.
func (h *HTTPHandler) ClearSession(c *gin.Context) {
	h.service.ClearSession(tenant(c))
	c.Status(http.StatusNoContent)
}
