package inmemdb

import (
	"context"

	"github.com/trezcool/campusflow/core/assistant"
)

type conversationRepository struct {
	db *conversationTable
}

var _ assistant.Repository = (*conversationRepository)(nil)

func NewConversationRepository(db *DB) assistant.Repository {
	return &conversationRepository{db: db.conversation}
}

func (repo *conversationRepository) CreateConversation(_ context.Context, c assistant.Conversation) (assistant.Conversation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newID()
	repo.db.rows = append(repo.db.rows, &c)
	return c, nil
}

func (repo *conversationRepository) QueryConversations(_ context.Context, userID string, limit int) ([]assistant.Conversation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	convs := make([]assistant.Conversation, 0)
	for i := len(repo.db.rows) - 1; i >= 0 && (limit <= 0 || len(convs) < limit); i-- {
		if c := repo.db.rows[i]; c.UserID == userID {
			convs = append(convs, *c)
		}
	}
	return convs, nil
}
