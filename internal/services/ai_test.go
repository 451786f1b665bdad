package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yukikurage/worktime-api/internal/models"
)

func fakeOpenAI(t *testing.T, content string) *AIService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewAIServiceWithConfig(cfg)
}

func TestDraftTasksFromText(t *testing.T) {
	ai := fakeOpenAI(t, "```json\n[{\"title\":\"Interview the mayor\",\"description\":\"15 minutes\",\"points\":6}]\n```")

	drafts, err := ai.DraftTasksFromText(context.Background(), "Газета", "need an interview")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, DraftTask{Title: "Interview the mayor", Description: "15 minutes", Points: 6}, drafts[0])
}

func TestTaskServiceDraftTasksFiltersInvalid(t *testing.T) {
	ai := fakeOpenAI(t, `[{"title":"  ","points":3},{"title":"Shoot the game","description":"","points":-2}]`)
	service := NewTaskService(nil, nil, nil, ai, testOrg(), zap.NewNop())
	admin := Actor{ID: 1, Role: models.RoleAdmin, Department: "Операторы"}

	drafts, err := service.DraftTasks(context.Background(), admin, "", "text")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Shoot the game", drafts[0].Title)
	assert.Equal(t, 0, drafts[0].Points)
}

func TestTaskServiceDraftTasksEmpty(t *testing.T) {
	ai := fakeOpenAI(t, `[]`)
	service := NewTaskService(nil, nil, nil, ai, testOrg(), zap.NewNop())
	admin := Actor{ID: 1, Role: models.RoleAdmin, Department: "Операторы"}

	_, err := service.DraftTasks(context.Background(), admin, "", "text")
	assert.ErrorIs(t, err, ErrAINoTasksGenerated)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "[]", stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, "[]", stripCodeFence("  []  "))
}
