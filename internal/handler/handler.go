package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/internal/cache"
	"github.com/intervia/interview-api/internal/evaluation"
	"github.com/intervia/interview-api/pkg/model"
	"go.uber.org/zap"
)

// SessionStore is the session/answer slice of the repository the handlers
// depend on.
type SessionStore interface {
	StartSession(ctx context.Context, invitationID uuid.UUID, startTime time.Time) (*model.Session, bool, error)
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Session, error)
	ListSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerWithQuestion, error)
	ListCompletedSessions(ctx context.Context, startDate, endDate *time.Time) ([]model.CompletedSession, error)
	CreateAnswer(ctx context.Context, answer *model.Answer) (*model.Answer, error)
	UpdateAnswerTranscript(ctx context.Context, sessionID, answerID uuid.UUID, transcript string) (*model.Answer, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *model.Invitation) (*model.Invitation, error)
	GetInvitationDetail(ctx context.Context, id uuid.UUID) (*model.InvitationDetail, error)
}

type Handler struct {
	Logger      *zap.Logger
	Sessions    SessionStore
	Invitations InvitationStore
	Evaluator   *evaluation.Evaluator
	Queue       *evaluation.Queue
	// Cache is optional; nil disables invitation snapshot caching.
	Cache *cache.InvitationCache
}
