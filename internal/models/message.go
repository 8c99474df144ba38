package models

import "errors"

// ErrInvalidMessageType is returned when message content carries an unknown
// type tag or is missing fields required by its type.
var ErrInvalidMessageType = errors.New("invalid message type")

// Message type tags
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
)

// MessageContent is the type-tagged content of a message. Exactly one of the
// three variants is valid:
//
//	text:  {type, text}
//	image: {type, url, height, width}
//	video: {type, url, source}
//
// Fields are pointers so that an absent field can be told apart from a zero
// value, both when decoding requests and when rendering responses.
type MessageContent struct {
	Type   string  `json:"type"`
	Text   *string `json:"text,omitempty"`
	URL    *string `json:"url,omitempty"`
	Height *int64  `json:"height,omitempty"`
	Width  *int64  `json:"width,omitempty"`
	Source *string `json:"source,omitempty"`
}

// Validate checks that the content carries a known type tag and all fields
// required by that type. Fields belonging to another variant are ignored
// rather than rejected; only the variant's own fields are ever stored.
func (c MessageContent) Validate() error {
	switch c.Type {
	case MessageTypeText:
		if c.Text == nil {
			return ErrInvalidMessageType
		}
	case MessageTypeImage:
		if c.URL == nil || c.Height == nil || c.Width == nil {
			return ErrInvalidMessageType
		}
	case MessageTypeVideo:
		if c.URL == nil || c.Source == nil {
			return ErrInvalidMessageType
		}
	default:
		return ErrInvalidMessageType
	}
	return nil
}

// MessageDB represents a message record in the database. Content variants are
// flattened into nullable columns; only the columns required by MsgType are
// set.
type MessageDB struct {
	MsgID     int64   `db:"msg_id"`     // Primary key, assigned sequentially in send order
	Sender    int64   `db:"sender"`     // Sending user id
	Recipient int64   `db:"recipient"`  // Receiving user id
	MsgType   string  `db:"msg_type"`   // One of text, image, video
	MsgText   *string `db:"msg_text"`   // text only
	ImgHeight *int64  `db:"img_height"` // image only
	ImgWidth  *int64  `db:"img_width"`  // image only
	URL       *string `db:"url"`        // image and video
	VidSource *string `db:"vid_source"` // video only
	Timestamp string  `db:"timestamp"`  // UTC creation time, second precision, ISO-8601 zero offset
}

// Content reassembles the tagged variant from the flat columns.
func (m MessageDB) Content() MessageContent {
	c := MessageContent{Type: m.MsgType}
	switch m.MsgType {
	case MessageTypeText:
		c.Text = m.MsgText
	case MessageTypeImage:
		c.URL = m.URL
		c.Height = m.ImgHeight
		c.Width = m.ImgWidth
	case MessageTypeVideo:
		c.URL = m.URL
		c.Source = m.VidSource
	}
	return c
}

// MessageView is the API rendering of a stored message.
type MessageView struct {
	ID        int64          `json:"id"`
	Timestamp string         `json:"timestamp"`
	Sender    int64          `json:"sender"`
	Recipient int64          `json:"recipient"`
	Content   MessageContent `json:"content"`
}

// View renders the message for API responses.
func (m MessageDB) View() MessageView {
	return MessageView{
		ID:        m.MsgID,
		Timestamp: m.Timestamp,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Content:   m.Content(),
	}
}
