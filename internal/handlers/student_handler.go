package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/services"
	"github.com/mathsia/memocard-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
}

func NewStudentHandler(studentService services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
	}
}

// ===== ADMIN ACCOUNT OPERATIONS =====

// CreateStudent creates a new student account
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	h.LogRequest(c, "Creating student")

	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetStudent retrieves a student by ID
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent updates a student account
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating student", "student_id", id)

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student account
// @Summary Delete student
// @Tags students
// @Param id path string true "Student ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student deleted"})
}

// ListStudents lists student accounts
// @Summary List students
// @Tags students
// @Produce json
// @Success 200 {object} ListResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	filters := repositories.UserFilters{
		Skip:  h.parseIntQuery(c, "skip", 0),
		Limit: h.parseIntQuery(c, "limit", repositories.DefaultListLimit),
	}
	if level := c.Query("level"); level != "" {
		l := models.SchoolLevel(level)
		filters.Level = &l
	}

	students, total, err := h.studentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items: students,
		Total: total,
		Skip:  filters.Skip,
		Limit: filters.Limit,
	})
}

// ===== PROGRESS =====

// ProgressResponse pairs a progress report with the student it belongs to.
type ProgressResponse struct {
	StudentID string                  `json:"student_id"`
	Progress  *models.StudentProgress `json:"progress"`
}

// GetStudentProgress returns a student's progress report
// @Summary Get student progress
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} ProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id}/progress [get]
func (h *StudentHandler) GetStudentProgress(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.respondProgress(c, id)
}

// GetMyProgress returns the calling student's own progress report
// @Summary Get own progress
// @Tags students
// @Produce json
// @Success 200 {object} ProgressResponse
// @Router /students/me/progress [get]
func (h *StudentHandler) GetMyProgress(c *gin.Context) {
	h.respondProgress(c, h.currentUserID(c))
}

func (h *StudentHandler) respondProgress(c *gin.Context, studentID string) {
	progress, err := h.studentService.GetProgress(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{
		StudentID: studentID,
		Progress:  progress,
	})
}
