package dto

type SendMessageRequest struct {
	Prompt string `json:"prompt"`
}

type ChatMessageDTO struct {
	Id     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

type SendMessageResponse struct {
	Sent  ChatMessageDTO `json:"sent"`
	Reply ChatMessageDTO `json:"reply"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessageDTO `json:"messages"`
}

type ClearChatResponse struct {
	Cleared int `json:"cleared"`
}
