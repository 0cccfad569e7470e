package service

import (
	"context"
	"strings"
	"time"

	"projectx-be/internal/dto"
	"projectx-be/internal/entity"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/repository/memory"
	"projectx-be/pkg/llm"

	"github.com/google/uuid"
)

const ChatFailedMessage = "Failed to get response. Please try again."

var (
	ErrEmptyPrompt  = serverutils.BadRequest("prompt must not be empty")
	ErrReplyPending = serverutils.Conflict("a reply is still being generated")
)

// ChatOwner identifies one transcript: a signed-in user in one session.
type ChatOwner struct {
	UserId    uuid.UUID
	SessionId uuid.UUID
}

func (o ChatOwner) key() string {
	return memory.TranscriptKey(o.UserId, o.SessionId)
}

type IChatbotService interface {
	SendMessage(ctx context.Context, owner ChatOwner, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	History(ctx context.Context, owner ChatOwner) (*dto.ChatHistoryResponse, error)
	Clear(ctx context.Context, owner ChatOwner) (*dto.ClearChatResponse, error)
}

type chatbotService struct {
	llmProvider llm.LLMProvider
	transcripts *memory.TranscriptRepository
	model       string
	logger      logger.ILogger
	llmLogger   logger.ILogger
}

func NewChatbotService(
	llmProvider llm.LLMProvider,
	transcripts *memory.TranscriptRepository,
	model string,
	logger logger.ILogger,
	llmLogger logger.ILogger,
) IChatbotService {
	return &chatbotService{
		llmProvider: llmProvider,
		transcripts: transcripts,
		model:       model,
		logger:      logger,
		llmLogger:   llmLogger,
	}
}

// SendMessage appends the prompt, asks the model once and appends its reply.
// Only the raw prompt is sent; earlier messages are not context.
func (cs *chatbotService) SendMessage(ctx context.Context, owner ChatOwner, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	key := owner.key()
	if !cs.transcripts.BeginExchange(key) {
		return nil, ErrReplyPending
	}
	defer cs.transcripts.EndExchange(key)

	sent := cs.transcripts.Append(key, req.Prompt, entity.ChatSenderUser)

	reply, err := cs.generateResponse(ctx, req.Prompt, cs.model)
	if err != nil {
		// The user message stays in the transcript
		cs.logger.Error("CHATBOT", "Error fetching AI response", map[string]interface{}{
			"user_id": owner.UserId.String(),
			"model":   cs.model,
			"error":   err,
		})
		return nil, serverutils.Upstream(ChatFailedMessage, err)
	}

	bot := cs.transcripts.Append(key, reply, entity.ChatSenderBot)

	return &dto.SendMessageResponse{
		Sent:  toChatMessageDTO(sent),
		Reply: toChatMessageDTO(bot),
	}, nil
}

func (cs *chatbotService) generateResponse(ctx context.Context, prompt, model string) (string, error) {
	start := time.Now()
	text, err := cs.llmProvider.Generate(ctx, prompt, llm.WithModel(model))

	details := map[string]interface{}{
		"model":          model,
		"prompt_chars":   len(prompt),
		"duration_ms":    time.Since(start).Milliseconds(),
		"response_chars": len(text),
	}
	if err != nil {
		details["error"] = err
		cs.llmLogger.Error("LLM", "Generate failed", details)
		return "", err
	}
	cs.llmLogger.Info("LLM", "Generate completed", details)
	return text, nil
}

func (cs *chatbotService) History(ctx context.Context, owner ChatOwner) (*dto.ChatHistoryResponse, error) {
	messages := cs.transcripts.Messages(owner.key())

	out := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, toChatMessageDTO(m))
	}
	return &dto.ChatHistoryResponse{Messages: out}, nil
}

func (cs *chatbotService) Clear(ctx context.Context, owner ChatOwner) (*dto.ClearChatResponse, error) {
	n := cs.transcripts.Clear(owner.key())
	return &dto.ClearChatResponse{Cleared: n}, nil
}

func toChatMessageDTO(m entity.ChatMessage) dto.ChatMessageDTO {
	return dto.ChatMessageDTO{
		Id:     m.Id,
		Text:   m.Text,
		Sender: string(m.Sender),
	}
}
