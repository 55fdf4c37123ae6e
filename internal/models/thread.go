package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Thread is a direct-message conversation between exactly two participants.
// PairKey is the canonical "min:max" encoding of the participant pair; its
// unique index is what guarantees a single thread per unordered pair even
// when two first-messages race.
type Thread struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ParticipantA uint `gorm:"not null;index" json:"sender_id"`
	ParticipantB uint `gorm:"not null;index" json:"receiver_id"`

	PairKey string `gorm:"uniqueIndex;not null" json:"-"`

	// BlockerID, when set, is the participant who blocked the conversation.
	// Message delivery notifications are suppressed while it is set.
	BlockerID *uint `json:"blocker_id"`

	Messages []Message `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"messages"`
}

// ThreadPairKey returns the canonical key for an unordered participant pair.
// Smaller ID always comes first so (a,b) and (b,a) collide.
func ThreadPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// HasParticipant reports whether userID is one of the two thread endpoints.
func (t *Thread) HasParticipant(userID uint) bool {
	return t.ParticipantA == userID || t.ParticipantB == userID
}

// PeerOf returns the other participant of the thread.
func (t *Thread) PeerOf(userID uint) uint {
	if t.ParticipantA == userID {
		return t.ParticipantB
	}
	return t.ParticipantA
}

// Message is owned by its thread and append-only. Seen may only transition
// false -> true, and only the receiver may flip it.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ThreadID   uint `gorm:"not null;index" json:"thread_id"`
	SenderID   uint `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint `gorm:"not null;index" json:"receiver_id"`

	Text string `gorm:"type:text" json:"text,omitempty"`

	// Optional attachment descriptor. Key addresses the object in storage;
	// URL is the public location handed to clients.
	FileMime string `json:"file_mime,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileKey  string `json:"file_key,omitempty"`
	FileURL  string `json:"file_url,omitempty"`

	Seen bool `gorm:"default:false" json:"seen"`
}

// HasAttachment reports whether the message references a stored file.
func (m *Message) HasAttachment() bool {
	return m.FileKey != ""
}

type MessageResponse struct {
	ID         uint         `json:"id"`
	ThreadID   uint         `json:"thread_id"`
	SenderID   uint         `json:"sender_id"`
	Sender     UserResponse `json:"sender"`
	ReceiverID uint         `json:"receiver_id"`
	Text       string       `json:"text,omitempty"`
	FileMime   string       `json:"file_mime,omitempty"`
	FileName   string       `json:"file_name,omitempty"`
	FileURL    string       `json:"file_url,omitempty"`
	Seen       bool         `json:"seen"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (m *Message) ToResponse(sender UserResponse) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		SenderID:   m.SenderID,
		Sender:     sender,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		FileMime:   m.FileMime,
		FileName:   m.FileName,
		FileURL:    m.FileURL,
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt,
	}
}

// ThreadResponse is a thread materialized for display: participant profiles
// expanded and messages in chronological order.
type ThreadResponse struct {
	ID        uint              `json:"id"`
	Sender    UserResponse      `json:"sender"`
	Receiver  UserResponse      `json:"receiver"`
	BlockerID *uint             `json:"blocker_id"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
}

// ThreadSummary is one row of a user's conversation list, ordered by the
// newest message in the thread rather than the thread's own updated_at.
type ThreadSummary struct {
	ID            uint         `json:"id"`
	Peer          UserResponse `json:"peer"`
	BlockerID     *uint        `json:"blocker_id"`
	LastMessage   *MessageResponse `json:"last_message,omitempty"`
	UnreadCount   int64        `json:"unread_count"`
	LastActivity  time.Time    `json:"last_activity"`
}
