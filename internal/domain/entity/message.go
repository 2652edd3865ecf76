package entity

import "time"

type Message struct {
	ID             string `json:"id" firestore:"id"`
	ConversationID string `json:"conversation_id" firestore:"conversationId"`
	Text           string `json:"text" firestore:"text"`
	ImageURL       string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	SenderID       string `json:"sender_id" firestore:"senderId"`
	SenderName     string `json:"sender_name" firestore:"senderName"`

	// Server-assigned send time, ascending order contract for subscribers.
	// Seq breaks ties when the clock is too coarse to separate two sends.
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Seq       int64     `json:"seq" firestore:"seq"`

	// Informational only; authoritative read-state lives in the
	// conversation's per-role counters.
	IsRead bool `json:"is_read" firestore:"isRead"`

	// True when the send was made with a cached (unverified) identity.
	CachedIdentity bool `json:"cached_identity,omitempty" firestore:"cachedIdentity,omitempty"`
}

func (m *Message) Summary() MessageSummary {
	return MessageSummary{
		Text:      m.Text,
		ImageURL:  m.ImageURL,
		SenderID:  m.SenderID,
		Timestamp: m.Timestamp,
	}
}
