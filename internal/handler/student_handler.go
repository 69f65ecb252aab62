package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/middleware"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/response"
	"github.com/sihmvp/dropout-monitor/internal/service"
	"github.com/sihmvp/dropout-monitor/internal/validator"
)

// StudentHandler serves the roster and student records.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/students?search=&filter=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	filter, err := model.ParseRiskFilter(c.Query("filter"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidFilter)
		return
	}

	roster, err := h.studentService.List(c.Request.Context(), c.Query("search"), filter)
	if err != nil {
		internalError(c, h.log, err, "List students failed")
		return
	}
	response.Success(c, http.StatusOK, roster)
}

// GetStudent godoc
// GET /api/student/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	h.writeDetail(c, c.Param("id"))
}

// GetOwnRecord godoc
// GET /api/student/me
// The student id is the token's username.
func (h *StudentHandler) GetOwnRecord(c *gin.Context) {
	h.writeDetail(c, middleware.Actor(c))
}

func (h *StudentHandler) writeDetail(c *gin.Context, studentID string) {
	detail, err := h.studentService.Detail(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
			return
		}
		internalError(c, h.log, err, "Get student failed")
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// GetTrend godoc
// GET /api/student/trends/:id
// Students may only read their own trend.
func (h *StudentHandler) GetTrend(c *gin.Context) {
	studentID := c.Param("id")
	if claims := middleware.GetClaims(c); claims != nil && claims.Role == model.RoleStudent && claims.Username != studentID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	points, err := h.studentService.Trend(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrNoTrendData) {
			response.Fail(c, http.StatusNotFound, response.ErrNoTrendData)
			return
		}
		internalError(c, h.log, err, "Get trend failed")
		return
	}
	response.Success(c, http.StatusOK, points)
}

// GetSubjectScores godoc
// GET /api/subjects/scores
func (h *StudentHandler) GetSubjectScores(c *gin.Context) {
	scores, err := h.studentService.SubjectScores(c.Request.Context())
	if err != nil {
		internalError(c, h.log, err, "Get subject scores failed")
		return
	}
	response.Success(c, http.StatusOK, scores)
}

// UpdateStudent godoc
// POST /api/student/update
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	var req model.UpdateStudentRequest
	fields := validator.Bind(c, &req)
	if req.StudentID == "" || req.Updates == nil {
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, "Student ID and updates are required.")
		return
	}
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.studentService.Update(c.Request.Context(), middleware.Actor(c), req.StudentID, *req.Updates); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.FailWithMessage(c, http.StatusNotFound, response.ErrStudentNotFound,
				fmt.Sprintf("Student %s not found.", req.StudentID))
			return
		}
		internalError(c, h.log, err, "Update student failed")
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("Student %s updated successfully.", req.StudentID))
}

// DeleteStudent godoc
// DELETE /api/student/delete/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	studentID := c.Param("id")
	if err := h.studentService.Delete(c.Request.Context(), middleware.Actor(c), studentID); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.FailWithMessage(c, http.StatusNotFound, response.ErrStudentNotFound,
				fmt.Sprintf("Student %s not found.", studentID))
			return
		}
		internalError(c, h.log, err, "Delete student failed")
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("Student %s and their records deleted successfully.", studentID))
}
