package openai_test

import (
	"context"
	"os"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/ai/openai"
)

func TestConvertMessages(t *testing.T) {
	msgs := openai.ConvertMessages(ai.ChatRequest{
		System: "be brief",
		Turns: []ai.Turn{
			{Role: ai.ROLE_USER, Text: "hi"},
			{Role: ai.ROLE_MODEL, Text: "hello"},
			{Role: ai.ROLE_USER, Text: "what is this", Image: &ai.InlineData{MimeType: "image/jpeg", Data: []byte("x")}},
		},
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, goopenai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, goopenai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "hello", msgs[2].Content)

	require.Len(t, msgs[3].MultiContent, 2)
	assert.Equal(t, "data:image/jpeg;base64,eA==", msgs[3].MultiContent[0].ImageURL.URL)
	assert.Equal(t, "what is this", msgs[3].MultiContent[1].Text)
}

func TestExtractTextRejectsPDF(t *testing.T) {
	d := openai.New("token", "", "")
	_, err := d.ExtractText(context.Background(), ai.InlineData{MimeType: "application/pdf"})
	assert.ErrorIs(t, err, ai.ErrNotSupported)
}

func TestChat(t *testing.T) {
	token := os.Getenv("TEST_STUDYMATE_OPENAI_TOKEN")
	if token == "" {
		t.Skip("TEST_STUDYMATE_OPENAI_TOKEN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	d := openai.New(token, os.Getenv("TEST_STUDYMATE_OPENAI_ENDPOINT"), "")
	res, err := d.Chat(ctx, ai.ChatRequest{Turns: []ai.Turn{{Role: ai.ROLE_USER, Text: "Say ok."}}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Content)
}
