package assistant_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core/assistant"
	"github.com/trezcool/campusflow/tests"
)

func TestChatAndHistory(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")
	other := env.RegisterStudent(t, "John Doe", "john@example.com")

	reply, err := env.Assistant.Chat(ctx, usr, assistant.Question{Question: "What about my fees?"})
	require.NoError(t, err)
	assert.Contains(t, reply.Answer, "₹0 paid out of ₹51000 total")

	for i := 0; i < assistant.HistoryLimit+5; i++ {
		_, err := env.Assistant.Chat(ctx, usr, assistant.Question{Question: fmt.Sprintf("question %d", i)})
		require.NoError(t, err)
	}

	history, err := env.Assistant.History(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, history, assistant.HistoryLimit)
	assert.Equal(t, fmt.Sprintf("question %d", assistant.HistoryLimit+4), history[0].Question)
	assert.Contains(t, history[0].Context, "Student: Jane Doe")
	assert.NotEmpty(t, history[0].Answer)

	history, err = env.Assistant.History(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestQuestionValidate(t *testing.T) {
	env := testutil.NewEnv(t)

	q := assistant.Question{Question: "  status?  "}
	require.NoError(t, q.Validate(env.Validate))
	assert.Equal(t, "status?", q.Question)

	q = assistant.Question{Question: "   "}
	assert.Error(t, q.Validate(env.Validate))
}
