package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/intervia/interview-api/internal/evaluation"
	"github.com/intervia/interview-api/internal/openai"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/intervia/interview-api/pkg/response"
	"github.com/jackc/pgx/v5"
)

// StartSession creates the session for an invitation or resumes the existing
// one. Duplicate starts are not an error.
func (h *Handler) StartSession(c *gin.Context) {
	var req model.StartSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, created, err := h.Sessions.StartSession(c.Request.Context(), req.InvitationID, req.StartTime)
	if err != nil {
		h.Logger.Sugar().Errorw("failed to start session", "invitation_id", req.InvitationID, "err", err)
		response.InternalError(c, "failed to start session")
		return
	}

	if created {
		response.Created(c, session)
		return
	}
	response.OK(c, session)
}

// RecordAnswer stores one candidate response. Answers submitted after the
// session completes are still accepted; whether that should be locked out is
// an open product question.
func (h *Handler) RecordAnswer(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.RecordAnswerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.Sessions.GetSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "session not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to load session", "session_id", sessionID, "err", err)
		response.InternalError(c, "")
		return
	}

	answer, err := h.Sessions.CreateAnswer(c.Request.Context(), &model.Answer{
		SessionID:  sessionID,
		QuestionID: req.QuestionID,
		Transcript: req.Transcript,
		AudioURL:   req.AudioURL,
	})
	if err != nil {
		h.Logger.Sugar().Errorw("failed to record answer", "session_id", sessionID, "err", err)
		response.InternalError(c, "failed to record answer")
		return
	}

	response.Created(c, answer)
}

// UpdateTranscript corrects an answer's transcript before evaluation.
func (h *Handler) UpdateTranscript(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.BadRequest(c, "invalid answer id")
		return
	}

	var req model.UpdateTranscriptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		response.BadRequest(c, "transcript must not be blank")
		return
	}

	answer, err := h.Sessions.UpdateAnswerTranscript(c.Request.Context(), sessionID, answerID, req.Transcript)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "answer not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to update transcript", "answer_id", answerID, "err", err)
		response.InternalError(c, "failed to update transcript")
		return
	}

	response.OK(c, answer)
}

// FinishSession is the manual completion path: the operator supplies the
// summary, report and score directly, bypassing the evaluation pipeline.
func (h *Handler) FinishSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req model.FinishSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.Sessions.UpdateSession(c.Request.Context(), sessionID, map[string]interface{}{
		"summary":           req.Summary,
		"full_report":       req.FullReport,
		"score":             *req.Score,
		"completed_at":      time.Now().UTC(),
		"evaluation_status": model.EvaluationStatusEvaluated,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "session not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to finish session", "session_id", sessionID, "err", err)
		response.InternalError(c, "failed to finish session")
		return
	}

	response.OK(c, session)
}

// EvaluateSession completes the session if needed and queues the evaluation
// job. The response is only an acknowledgment; callers poll the session's
// evaluation_status for the outcome.
func (h *Handler) EvaluateSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.Sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "session not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to load session", "session_id", sessionID, "err", err)
		response.InternalError(c, "")
		return
	}

	updates := map[string]interface{}{
		"evaluation_status": model.EvaluationStatusPending,
	}
	if session.CompletedAt == nil {
		updates["completed_at"] = time.Now().UTC()
	}
	if _, err := h.Sessions.UpdateSession(c.Request.Context(), sessionID, updates); err != nil {
		h.Logger.Sugar().Errorw("failed to mark session pending", "session_id", sessionID, "err", err)
		response.InternalError(c, "failed to queue evaluation")
		return
	}

	h.Queue.Enqueue(h.Evaluator.NewJob(sessionID))
	h.Logger.Sugar().Infow("session queued for evaluation", "session_id", sessionID)
	response.Accepted(c, "session queued for evaluation")
}

// ReEvaluateSession runs the pipeline synchronously so an operator gets the
// updated session, or an actionable error, immediately.
func (h *Handler) ReEvaluateSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	if _, err := h.Sessions.GetSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "session not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to load session", "session_id", sessionID, "err", err)
		response.InternalError(c, "")
		return
	}

	session, err := h.Evaluator.Run(c.Request.Context(), sessionID)
	if err != nil {
		h.Logger.Sugar().Errorw("re-evaluation failed", "session_id", sessionID, "err", err)

		var upstream *openai.UpstreamError
		switch {
		case errors.Is(err, evaluation.ErrNoValidAnswers), errors.Is(err, evaluation.ErrInvalidCategory):
			response.BadRequest(c, err.Error())
		case errors.As(err, &upstream), errors.Is(err, openai.ErrEmptyResponse):
			response.BadGateway(c, "")
		case errors.Is(err, pgx.ErrNoRows):
			response.NotFound(c, "session not found")
		default:
			response.InternalError(c, "re-evaluation failed")
		}
		return
	}

	response.OK(c, session)
}

// SessionSummary returns the session with its answers joined to questions.
func (h *Handler) SessionSummary(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.Sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "session not found")
			return
		}
		h.Logger.Sugar().Errorw("failed to load session", "session_id", sessionID, "err", err)
		response.InternalError(c, "")
		return
	}

	answers, err := h.Sessions.ListSessionAnswers(c.Request.Context(), sessionID)
	if err != nil {
		h.Logger.Sugar().Errorw("failed to load answers", "session_id", sessionID, "err", err)
		response.InternalError(c, "")
		return
	}
	if answers == nil {
		answers = []model.AnswerWithQuestion{}
	}

	response.OK(c, model.SessionSummary{Session: *session, Answers: answers})
}

// ListCompletedSessions returns the completed-sessions report, optionally
// bounded by completion date.
func (h *Handler) ListCompletedSessions(c *gin.Context) {
	var q model.ListCompletedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sessions, err := h.Sessions.ListCompletedSessions(c.Request.Context(), q.StartDate, q.EndDate)
	if err != nil {
		h.Logger.Sugar().Errorw("failed to list completed sessions", "err", err)
		response.InternalError(c, "")
		return
	}

	response.OK(c, sessions)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
