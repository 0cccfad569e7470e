package entity

type ChatSender string

const (
	ChatSenderUser ChatSender = "user"
	ChatSenderBot  ChatSender = "bot"
)

// ChatMessage is one entry of an in-memory chat transcript. It is never
// persisted.
type ChatMessage struct {
	Id     int64
	Text   string
	Sender ChatSender
}
