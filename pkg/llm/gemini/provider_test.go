package gemini

import (
	"context"
	"errors"
	"testing"

	"projectx-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	reply       string
	err         error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents
	f.gotConfig = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(f.reply, genai.RoleModel)},
		},
	}, nil
}

func TestGenerateSendsOnlyThePrompt(t *testing.T) {
	fake := &fakeModels{reply: "Paris."}
	p := &GeminiProvider{models: fake, ModelName: DefaultModel}

	got, err := p.Generate(context.Background(), "Capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris.", got)
	assert.Equal(t, "gemini-1.5-flash", fake.gotModel)
	require.Len(t, fake.gotContents, 1)
	assert.Equal(t, genai.RoleUser, fake.gotContents[0].Role)
	assert.Equal(t, "Capital of France?", fake.gotContents[0].Parts[0].Text)
	assert.Nil(t, fake.gotConfig.Temperature)
}

func TestChatMapsRolesAndOptions(t *testing.T) {
	fake := &fakeModels{reply: "ok"}
	p := &GeminiProvider{models: fake, ModelName: DefaultModel}

	_, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
		{Role: llm.RoleUser, Content: "bye"},
	}, llm.WithModel("gemini-2.0-flash"), llm.WithTemperature(0.3), llm.WithMaxTokens(64))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", fake.gotModel)
	require.Len(t, fake.gotContents, 3)
	assert.Equal(t, genai.RoleModel, fake.gotContents[1].Role)
	assert.Equal(t, "be brief", fake.gotConfig.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.3, *fake.gotConfig.Temperature, 1e-6)
	assert.Equal(t, int32(64), fake.gotConfig.MaxOutputTokens)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("provider failure is wrapped", func(t *testing.T) {
		cause := errors.New("quota exceeded")
		p := &GeminiProvider{models: &fakeModels{err: cause}, ModelName: DefaultModel}

		_, err := p.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("blank reply", func(t *testing.T) {
		p := &GeminiProvider{models: &fakeModels{reply: "  "}, ModelName: DefaultModel}

		_, err := p.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	})
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "")
	assert.Error(t, err)
}
