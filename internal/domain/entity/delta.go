package entity

// ChangeKind classifies a document delta inside a live snapshot.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	}
	return "unknown"
}

// ConversationChange is one delta in a conversation-list snapshot.
type ConversationChange struct {
	Kind         ChangeKind
	Conversation *Conversation
}

// MessageChange is one delta in a message-log snapshot.
type MessageChange struct {
	Kind    ChangeKind
	Message *Message
}

// ConversationSnapshot is a full redelivery of the watcher's conversation
// set plus the deltas that produced it.
type ConversationSnapshot struct {
	Conversations []*Conversation
	Changes       []ConversationChange
}

// MessageSnapshot is a full ordered redelivery of one conversation's
// message log plus the deltas that produced it.
type MessageSnapshot struct {
	Messages []*Message
	Changes  []MessageChange
}
