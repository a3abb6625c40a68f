package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/intervia/interview-api/pkg/response"
	"github.com/jackc/pgx/v5"
)

func (h *Handler) CreateInvitation(c *gin.Context) {
	var req model.CreateInvitationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invitation, err := h.Invitations.CreateInvitation(c.Request.Context(), &model.Invitation{
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		CategoryID:     req.CategoryID,
	})
	if err != nil {
		h.Logger.Sugar().Errorw("failed to create invitation", "err", err)
		response.InternalError(c, "failed to create invitation")
		return
	}

	response.Created(c, invitation)
}

// GetInvitation returns the invitation with its category and ordered question
// set. This is the candidate's first load, so snapshots are served from the
// cache when one is wired in; cache failures fall through to the database.
func (h *Handler) GetInvitation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	if h.Cache != nil {
		detail, err := h.Cache.Get(c.Request.Context(), id)
		if err != nil {
			h.Logger.Sugar().Warnw("invitation cache read failed", "invitation_id", id, "err", err)
		} else if detail != nil {
			response.OK(c, detail)
			return
		}
	}

	detail, err := h.Invitations.GetInvitationDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "invitation not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to load invitation", "invitation_id", id, "err", err)
		response.InternalError(c, "")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Set(c.Request.Context(), detail); err != nil {
			h.Logger.Sugar().Warnw("invitation cache write failed", "invitation_id", id, "err", err)
		}
	}

	response.OK(c, detail)
}
