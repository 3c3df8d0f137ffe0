package schools

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/school-dashboard/backend/internal/models"
	"github.com/school-dashboard/backend/pkg/response"
)

// Handler handles school directory HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a schools handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateSchoolRequest is the body for POST /schools.
type CreateSchoolRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateSchool handles POST /schools.
func (h *Handler) CreateSchool(c *gin.Context) {
	var req CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	s := &models.School{Name: strings.TrimSpace(req.Name)}
	if s.Name == "" {
		response.BadRequest(c, "name required")
		return
	}
	if err := h.repo.CreateSchool(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create school")
		return
	}
	response.Created(c, s)
}

// ListSchools handles GET /schools.
func (h *Handler) ListSchools(c *gin.Context) {
	list, err := h.repo.ListSchools(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load schools")
		return
	}
	response.OK(c, list)
}

// CreateClassRequest is the body for POST /schools/:id/classes.
type CreateClassRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateClass handles POST /schools/:id/classes.
func (h *Handler) CreateClass(c *gin.Context) {
	schoolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid school id")
		return
	}
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	cl := &models.Class{SchoolID: schoolID, Name: strings.TrimSpace(req.Name)}
	if err := h.repo.CreateClass(c.Request.Context(), cl); err != nil {
		response.Internal(c, "failed to create class")
		return
	}
	response.Created(c, cl)
}

// ListClasses handles GET /schools/:id/classes.
func (h *Handler) ListClasses(c *gin.Context) {
	schoolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid school id")
		return
	}
	list, err := h.repo.ListClasses(c.Request.Context(), schoolID)
	if err != nil {
		response.Internal(c, "failed to load classes")
		return
	}
	response.OK(c, list)
}

// CreateStudentRequest is the body for POST /schools/:id/students.
type CreateStudentRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

// CreateStudent handles POST /schools/:id/students.
func (h *Handler) CreateStudent(c *gin.Context) {
	schoolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid school id")
		return
	}
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "full_name required")
		return
	}
	st := &models.Student{SchoolID: schoolID, FullName: strings.TrimSpace(req.FullName)}
	if err := h.repo.CreateStudent(c.Request.Context(), st); err != nil {
		response.Internal(c, "failed to create student")
		return
	}
	response.Created(c, st)
}

// ListStudents handles GET /schools/:id/students.
func (h *Handler) ListStudents(c *gin.Context) {
	schoolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid school id")
		return
	}
	list, err := h.repo.ListStudents(c.Request.Context(), schoolID)
	if err != nil {
		response.Internal(c, "failed to load students")
		return
	}
	response.OK(c, list)
}
