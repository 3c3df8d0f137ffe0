package invites

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/school-dashboard/backend/config"
	"github.com/school-dashboard/backend/internal/emaillogs"
	"github.com/school-dashboard/backend/internal/mailer"
	"github.com/school-dashboard/backend/internal/metrics"
	"github.com/school-dashboard/backend/internal/middleware"
	"github.com/school-dashboard/backend/internal/models"
	"github.com/school-dashboard/backend/pkg/queue"
	"github.com/school-dashboard/backend/pkg/response"
)

// IdentityVerifier resolves the bearer identity token presented to the
// accept endpoint into the authenticated uid and email. Token mechanics
// (issuer, format) stay behind this interface.
type IdentityVerifier interface {
	VerifyIdentity(token string) (uuid.UUID, string, error)
}

// Handler handles invitation HTTP endpoints.
type Handler struct {
	svc      *Service
	repo     *Repository
	logs     *emaillogs.Repository
	queue    *queue.Queue
	app      config.AppConfig
	verifier IdentityVerifier
	logger   *zap.Logger
}

// NewHandler creates an invites handler.
func NewHandler(svc *Service, repo *Repository, logs *emaillogs.Repository, q *queue.Queue,
	app config.AppConfig, verifier IdentityVerifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, repo: repo, logs: logs, queue: q, app: app, verifier: verifier, logger: logger}
}

// CreateRequest is the body for POST /invites.
type CreateRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Role      string   `json:"role" binding:"required"`
	SchoolID  string   `json:"school_id" binding:"required,uuid"`
	Name      string   `json:"name"`
	Subjects  []string `json:"subjects"`
	ClassIDs  []string `json:"class_ids"`
	StudentID string   `json:"student_id"`
}

// Create handles POST /invites. Persists the pending invitation first, then
// dispatches the invite email as a separate step: a delivery failure is
// reported in the response but the invitation stays valid and redeemable.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		response.BadRequest(c, "invalid school_id")
		return
	}
	classIDs := make([]uuid.UUID, 0, len(req.ClassIDs))
	for _, s := range req.ClassIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid class id: "+s)
			return
		}
		classIDs = append(classIDs, id)
	}
	var studentID *uuid.UUID
	if req.StudentID != "" {
		id, err := uuid.Parse(req.StudentID)
		if err != nil {
			response.BadRequest(c, "invalid student_id")
			return
		}
		studentID = &id
	}

	createdBy := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	inv, err := h.svc.Create(c.Request.Context(), CreateParams{
		Email:     req.Email,
		Role:      models.Role(req.Role),
		SchoolID:  schoolID,
		Name:      req.Name,
		Subjects:  req.Subjects,
		ClassIDs:  classIDs,
		StudentID: studentID,
		CreatedBy: &createdBy,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("create invite failed", zap.Error(err))
		response.Internal(c, "failed to create invite")
		return
	}
	metrics.InvitesCreated.Inc()

	link := h.app.InviteLink(inv.ID.String())
	queued := h.dispatchEmail(c.Request.Context(), inv, link)

	response.Created(c, gin.H{
		"invite_id":    inv.ID,
		"invite_link":  link,
		"email_queued": queued,
	})
}

// AcceptRequest is the body for POST /invites/accept.
type AcceptRequest struct {
	InviteID string `json:"invite_id" binding:"required,uuid"`
}

// Accept handles POST /invites/accept. The invited user presents the
// identity token issued after sign-in; uid and claimed email come from the
// verified token, never from the request body.
func (h *Handler) Accept(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Unauthorized(c, "missing identity token")
		return
	}
	uid, email, err := h.verifier.VerifyIdentity(token)
	if err != nil {
		response.Unauthorized(c, "invalid identity token")
		return
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invite_id required")
		return
	}
	inviteID, err := uuid.Parse(req.InviteID)
	if err != nil {
		response.BadRequest(c, "invalid invite_id")
		return
	}

	inv, err := h.svc.Accept(c.Request.Context(), inviteID, uid, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			response.NotFound(c, "invitation not found")
		case errors.Is(err, ErrAlreadyAccepted):
			response.Conflict(c, "invitation already used")
		case errors.Is(err, ErrEmailMismatch):
			response.Forbidden(c, "email mismatch")
		default:
			metrics.OnboardingFailures.Inc()
			h.logger.Error("onboarding failed", zap.Error(err), zap.String("invite_id", inviteID.String()))
			response.Internal(c, "onboarding failed")
		}
		return
	}
	metrics.InvitesAccepted.Inc()

	response.OK(c, gin.H{"role": inv.Role})
}

// ListBySchool handles GET /schools/:id/invites.
func (h *Handler) ListBySchool(c *gin.Context) {
	schoolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid school id")
		return
	}
	list, err := h.repo.ListBySchool(c.Request.Context(), schoolID)
	if err != nil {
		response.Internal(c, "failed to load invites")
		return
	}
	response.OK(c, list)
}

// Resend handles POST /invites/:id/resend. Re-dispatches the invite email
// for a still-pending invitation.
func (h *Handler) Resend(c *gin.Context) {
	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invite id")
		return
	}
	inv, err := h.repo.GetByID(c.Request.Context(), inviteID)
	if err != nil {
		if errors.Is(err, ErrInviteNotFound) {
			response.NotFound(c, "invitation not found")
			return
		}
		response.Internal(c, "failed to load invite")
		return
	}
	if !inv.Pending() {
		response.Conflict(c, "invitation already used")
		return
	}

	link := h.app.InviteLink(inv.ID.String())
	if !h.dispatchEmail(c.Request.Context(), inv, link) {
		response.ServiceUnavailable(c, "failed to queue invite email")
		return
	}
	response.OK(c, gin.H{"invite_id": inv.ID, "email_queued": true})
}

// dispatchEmail records a pending email log entry and enqueues the delivery
// job. Returns false when dispatch could not be queued; the invitation
// itself is unaffected either way.
func (h *Handler) dispatchEmail(ctx context.Context, inv *models.Invite, link string) bool {
	el := &models.EmailLog{
		InviteID:       &inv.ID,
		SchoolID:       &inv.SchoolID,
		EmailType:      models.EmailTypeForRole(inv.Role),
		RecipientEmail: inv.Email,
		Subject:        mailer.Subject(inv.Role),
	}
	if err := h.logs.Create(ctx, el); err != nil {
		h.logger.Error("create email log failed", zap.Error(err), zap.String("invite_id", inv.ID.String()))
		return false
	}
	err := h.queue.EnqueueInviteEmail(ctx, queue.InviteEmailPayload{
		InviteID:       inv.ID,
		EmailLogID:     el.ID,
		RecipientEmail: inv.Email,
		Role:           string(inv.Role),
		InviteLink:     link,
	})
	if err != nil {
		h.logger.Error("enqueue invite email failed", zap.Error(err), zap.String("invite_id", inv.ID.String()))
		if mErr := h.logs.MarkFailed(ctx, el.ID, "enqueue failed: "+err.Error()); mErr != nil {
			h.logger.Warn("mark email log failed", zap.Error(mErr))
		}
		return false
	}
	return true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
