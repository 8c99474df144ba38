package models

// MessageEvent is published to Kafka after a message is accepted by the
// store. Content payloads stay out of the event on purpose; consumers that
// need them read the store.
type MessageEvent struct {
	MessageID int64  `json:"message_id"` // Assigned message id
	Sender    int64  `json:"sender"`     // Sending user id
	Recipient int64  `json:"recipient"`  // Receiving user id
	MsgType   string `json:"type"`       // One of text, image, video
	Timestamp string `json:"timestamp"`  // Store-assigned creation time
}
