package assistant

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
)

// HistoryLimit is the number of conversations returned by History.
const HistoryLimit = 20

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Question struct {
	Question string `json:"question" validate:"required,notblank,max=1000"`
}

func (q *Question) Validate(validate *validator.Validate) error {
	q.Question = core.CleanString(q.Question)
	return validate.Struct(q)
}

type (
	Repository interface {
		CreateConversation(ctx context.Context, c Conversation) (Conversation, error)
		// QueryConversations returns the User's latest conversations, newest first.
		QueryConversations(ctx context.Context, userID string, limit int) ([]Conversation, error)
	}

	StatusReader interface {
		Status(ctx context.Context, userID string) (onboarding.Status, error)
	}

	Service struct {
		repo   Repository
		status StatusReader
	}
)

func NewService(repo Repository, status StatusReader) *Service {
	return &Service{repo: repo, status: status}
}

// Chat answers the User's question from their current onboarding status and records the exchange.
func (svc *Service) Chat(ctx context.Context, usr user.User, q Question) (Reply, error) {
	st, err := svc.status.Status(ctx, usr.ID)
	if err != nil {
		return Reply{}, errors.Wrap(err, "getting onboarding status")
	}
	c := Context{User: usr, Status: st}
	reply := Answer(q.Question, c)

	_, err = svc.repo.CreateConversation(ctx, Conversation{
		UserID:    usr.ID,
		Question:  q.Question,
		Answer:    reply.Answer,
		Context:   summary(c),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Reply{}, errors.Wrap(err, "creating conversation")
	}
	return reply, nil
}

func (svc *Service) History(ctx context.Context, userID string) ([]Conversation, error) {
	convs, err := svc.repo.QueryConversations(ctx, userID, HistoryLimit)
	if convs == nil {
		convs = []Conversation{}
	}
	return convs, errors.Wrap(err, "querying conversations")
}
