package repository

import (
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
)

// UserRepositoryInterface defines the contract for user lookups. This
// subsystem never mutates accounts; writes live with the account surface.
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	PushTokens(ids []uint) (map[uint]string, error)
}

// ThreadRepositoryInterface defines the contract for conversation storage.
type ThreadRepositoryInterface interface {
	ResolveOrCreate(participantA, participantB uint) (*models.Thread, error)
	FindByID(id uint) (*models.Thread, error)
	FindByPair(participantA, participantB uint) (*models.Thread, error)
	AppendMessage(message *models.Message) error
	MarkMessageSeen(threadID, messageID uint) error
	SetBlocker(threadID uint, blockerID *uint) error
	AttachmentKeys(threadID uint) ([]string, error)
	Delete(threadID uint) error
	ListForParticipant(userID uint) ([]ThreadListRow, error)
}

// NotificationRepositoryInterface defines the contract for notification
// record storage.
type NotificationRepositoryInterface interface {
	CreateBatch(notifications []models.Notification) error
	FindByID(id uint) (*models.Notification, error)
	ListForRecipient(recipientID uint, limit int) ([]models.Notification, error)
	CountUnread(recipientID uint) (int64, error)
	SetRead(id uint, read bool) error
	MarkAllRead(recipientID uint) error
	Delete(id uint) error
}

// GraphRepositoryInterface supplies the raw relational facts recipient
// resolution expands over: ownership chains, follower lists, share lists.
// Read-only.
type GraphRepositoryInterface interface {
	PostByID(id uint) (*models.Post, error)
	CommentByID(id uint) (*models.Comment, error)
	TimelineByID(id uint) (*models.Timeline, error)
	TimelineFollowerIDs(timelineID uint) ([]uint, error)
	PostShareUserIDs(postID uint) ([]uint, error)
	PostShareTimelineIDs(postID uint) ([]uint, error)
}
