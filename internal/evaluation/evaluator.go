package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/intervia/interview-api/pkg/model"
	"go.uber.org/zap"
)

// Store is the slice of the session store the pipeline needs.
type Store interface {
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Session, error)
	ListSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerWithQuestion, error)
	GetSessionCategory(ctx context.Context, sessionID uuid.UUID) (*model.Category, error)
}

// CompletionClient is the external evaluation service.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Evaluator runs the full scoring pipeline for one session: transcript
// assembly, the external call, tolerant parsing and the commit back to the
// store. The queued path and the synchronous re-evaluate path share it.
type Evaluator struct {
	store  Store
	client CompletionClient
	log    *zap.Logger
}

func NewEvaluator(store Store, client CompletionClient, log *zap.Logger) *Evaluator {
	return &Evaluator{store: store, client: client, log: log}
}

// Run evaluates the session and returns it with the committed result.
// ErrNoValidAnswers and ErrInvalidCategory short-circuit before the external
// service is contacted.
func (e *Evaluator) Run(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	sugar := e.log.Sugar()

	answers, err := e.store.ListSessionAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	for _, a := range answers {
		if strings.TrimSpace(a.Transcript) == "" {
			sugar.Warnw("skipping answer without transcript", "session_id", sessionID, "answer_id", a.AnswerID)
		}
	}

	category, err := e.store.GetSessionCategory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	prompt, err := BuildPrompt(category.Name, answers)
	if err != nil {
		return nil, err
	}

	raw, err := e.client.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := ParseResult(raw)
	if result.Fallback {
		sugar.Warnw("evaluation result unparseable, committing fallback values", "session_id", sessionID)
	}

	session, err := e.store.UpdateSession(ctx, sessionID, map[string]interface{}{
		"summary":           result.Summary,
		"full_report":       result.FullReport,
		"score":             result.Score,
		"evaluated_at":      time.Now().UTC(),
		"evaluation_status": model.EvaluationStatusEvaluated,
	})
	if err != nil {
		return nil, fmt.Errorf("commit evaluation: %w", err)
	}

	sugar.Infow("session evaluated", "session_id", sessionID, "score", result.Score)
	return session, nil
}

// NewJob wraps Run for the queue. The session is marked processing while the
// job runs and failed when it errors; evaluated_at stays unset on failure so
// an operator can re-evaluate later.
func (e *Evaluator) NewJob(sessionID uuid.UUID) Job {
	return func(ctx context.Context) error {
		if _, err := e.store.UpdateSession(ctx, sessionID, map[string]interface{}{
			"evaluation_status": model.EvaluationStatusProcessing,
		}); err != nil {
			return fmt.Errorf("mark session %s processing: %w", sessionID, err)
		}

		if _, err := e.Run(ctx, sessionID); err != nil {
			if _, uerr := e.store.UpdateSession(ctx, sessionID, map[string]interface{}{
				"evaluation_status": model.EvaluationStatusFailed,
			}); uerr != nil {
				e.log.Sugar().Errorw("failed to mark session failed", "session_id", sessionID, "err", uerr)
			}
			return fmt.Errorf("evaluate session %s: %w", sessionID, err)
		}
		return nil
	}
}
