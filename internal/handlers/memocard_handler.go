package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mathsia/memocard-service/internal/middleware"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/services"
	"github.com/mathsia/memocard-service/internal/utils"
)

type MemocardHandler struct {
	BaseHandler
	memocardService     services.MemocardService
	importExportService services.ImportExportService
}

func NewMemocardHandler(
	memocardService services.MemocardService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *MemocardHandler {
	return &MemocardHandler{
		BaseHandler:         NewBaseHandler(logger),
		memocardService:     memocardService,
		importExportService: importExportService,
	}
}

// ===== ADMIN CATALOG OPERATIONS =====

// CreateMemocard creates a new memocard
// @Summary Create memocard
// @Tags memocards
// @Accept json
// @Produce json
// @Success 201 {object} models.Memocard
// @Failure 400 {object} ErrorResponse
// @Router /memocards [post]
func (h *MemocardHandler) CreateMemocard(c *gin.Context) {
	h.LogRequest(c, "Creating memocard")

	var req services.CreateMemocardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	memocard, err := h.memocardService.Create(c.Request.Context(), &req, h.currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memocard)
}

// GetMemocard retrieves a memocard by ID
// @Summary Get memocard
// @Tags memocards
// @Produce json
// @Param id path uint true "Memocard ID"
// @Success 200 {object} models.Memocard
// @Failure 404 {object} ErrorResponse
// @Router /memocards/{id} [get]
func (h *MemocardHandler) GetMemocard(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	memocard, err := h.memocardService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, memocard)
}

// UpdateMemocard updates an existing memocard
// @Summary Update memocard
// @Tags memocards
// @Accept json
// @Produce json
// @Param id path uint true "Memocard ID"
// @Success 200 {object} models.Memocard
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /memocards/{id} [put]
func (h *MemocardHandler) UpdateMemocard(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating memocard", "memocard_id", id)

	var req services.UpdateMemocardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	memocard, err := h.memocardService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, memocard)
}

// DeleteMemocard removes a memocard from the catalog
// @Summary Delete memocard
// @Tags memocards
// @Param id path uint true "Memocard ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /memocards/{id} [delete]
func (h *MemocardHandler) DeleteMemocard(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting memocard", "memocard_id", id)

	if err := h.memocardService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Memocard deleted"})
}

// ListMemocards lists memocards with optional filters
// @Summary List memocards
// @Tags memocards
// @Produce json
// @Success 200 {object} ListResponse
// @Router /memocards [get]
func (h *MemocardHandler) ListMemocards(c *gin.Context) {
	filters := h.parseMemocardFilters(c)

	memocards, total, err := h.memocardService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items: memocards,
		Total: total,
		Skip:  filters.Skip,
		Limit: filters.Limit,
	})
}

// ===== STUDENT OPERATIONS =====

// ListMemocardsForStudent lists the active cards at the caller's level that
// the caller has not answered yet
// @Summary List unanswered memocards
// @Tags memocards
// @Produce json
// @Success 200 {array} models.Memocard
// @Failure 400 {object} ErrorResponse
// @Router /memocards/me [get]
func (h *MemocardHandler) ListMemocardsForStudent(c *gin.Context) {
	studentID := h.currentUserID(c)

	value, exists := c.Get(middleware.ContextLevel)
	if !exists {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Student has no school level",
		})
		return
	}
	level := value.(models.SchoolLevel)

	skip := h.parseIntQuery(c, "skip", 0)
	limit := h.parseIntQuery(c, "limit", repositories.DefaultListLimit)

	memocards, err := h.memocardService.ListForStudent(c.Request.Context(), studentID, level, skip, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, memocards)
}

// VerifyAnswer grades the caller's answer to a memocard and records the attempt
// @Summary Verify answer
// @Tags memocards
// @Accept json
// @Produce json
// @Param id path uint true "Memocard ID"
// @Success 201 {object} models.Response
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /memocards/{id}/verify [post]
func (h *MemocardHandler) VerifyAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.VerifyAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.MemocardID = id

	response, err := h.memocardService.VerifyAnswer(c.Request.Context(), &req, h.currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListMyResponses lists the caller's graded attempts at a memocard,
// newest first
// @Summary List own responses for a memocard
// @Tags memocards
// @Produce json
// @Param id path uint true "Memocard ID"
// @Success 200 {array} models.Response
// @Router /memocards/{id}/responses [get]
func (h *MemocardHandler) ListMyResponses(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	responses, err := h.memocardService.ListResponsesByStudentAndMemocard(c.Request.Context(), h.currentUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses)
}

// ===== IMPORT / EXPORT =====

// ImportMemocards bulk-creates memocards from an uploaded CSV or Excel file
// @Summary Import memocards
// @Tags memocards
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /memocards/import [post]
func (h *MemocardHandler) ImportMemocards(c *gin.Context) {
	h.LogRequest(c, "Importing memocards")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	creatorID := h.currentUserID(c)
	filename := strings.ToLower(fileHeader.Filename)

	var result *services.ImportResult
	switch {
	case strings.HasSuffix(filename, ".csv"):
		result, err = h.importExportService.ImportMemocardsFromCSV(c.Request.Context(), file, creatorID)
	case strings.HasSuffix(filename, ".xlsx"), strings.HasSuffix(filename, ".xls"):
		result, err = h.importExportService.ImportMemocardsFromExcel(c.Request.Context(), file, creatorID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported file format",
			Details: fileHeader.Filename,
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportMemocards downloads the filtered catalog as CSV or Excel
// @Summary Export memocards
// @Tags memocards
// @Produce application/octet-stream
// @Param format query string false "csv or xlsx" default(xlsx)
// @Success 200 {file} binary
// @Router /memocards/export [get]
func (h *MemocardHandler) ExportMemocards(c *gin.Context) {
	h.LogRequest(c, "Exporting memocards")

	filters := h.parseMemocardFilters(c)

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, err := h.importExportService.ExportMemocardsToCSV(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="memocards.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.importExportService.ExportMemocardsToExcel(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="memocards.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
		})
	}
}

// ===== HELPERS =====

func (h *MemocardHandler) parseMemocardFilters(c *gin.Context) repositories.MemocardFilters {
	filters := repositories.MemocardFilters{
		Skip:  h.parseIntQuery(c, "skip", 0),
		Limit: h.parseIntQuery(c, "limit", repositories.DefaultListLimit),
	}

	if level := c.Query("level"); level != "" {
		l := models.SchoolLevel(level)
		filters.Level = &l
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.DifficultyLevel(difficulty)
		filters.Difficulty = &d
	}
	if subject := c.Query("subject"); subject != "" {
		filters.Subject = &subject
	}
	if chapter := c.Query("chapter"); chapter != "" {
		filters.Chapter = &chapter
	}
	if activeStr := c.Query("is_active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filters.IsActive = &active
		}
	}

	return filters
}
