package chat

import (
	"encoding/json"

	"quickchat/internal/model"
)

// Wire event names, matching what clients subscribe to.
const (
	EventOnlineUsers     = "getOnlineUsers"
	EventNewMessage      = "newMessage"
	EventNewGroupMessage = "newGroupMessage"
)

// Envelope is the frame pushed over the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SenderProfile carries the resolved profile fields a group message is
// delivered with, so receivers can render without another lookup.
type SenderProfile struct {
	UUID       string `json:"_id"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}

// GroupMessagePayload is the newGroupMessage event body.
type GroupMessagePayload struct {
	model.Message
	Sender SenderProfile `json:"sender"`
}

// Encode wraps data in an Envelope and marshals the frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Event: event, Data: raw})
}
