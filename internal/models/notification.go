package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationComment     NotificationType = "comment"
	NotificationLikeComment NotificationType = "likecomment"
	NotificationMessage     NotificationType = "message"
	NotificationLike        NotificationType = "like"
	NotificationPost        NotificationType = "post"
	NotificationTimeline    NotificationType = "timeline"
)

// ParseNotificationType validates an inbound event type string.
func ParseNotificationType(s string) (NotificationType, bool) {
	switch t := NotificationType(s); t {
	case NotificationComment, NotificationLikeComment, NotificationMessage,
		NotificationLike, NotificationPost, NotificationTimeline:
		return t, true
	}
	return "", false
}

// NotificationData is the type-scoped payload of a notification: only the id
// lists relevant to the triggering event are populated.
type NotificationData struct {
	Users     []uint `json:"users,omitempty"`
	Timelines []uint `json:"timelines,omitempty"`
	Posts     []uint `json:"posts,omitempty"`
}

func (d NotificationData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *NotificationData) Scan(value interface{}) error {
	if value == nil {
		*d = NotificationData{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("notification data: unsupported scan type")
	}
	return json.Unmarshal(raw, d)
}

// Notification is one durable record per (event, recipient). Status false
// means unread.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FromID uint             `gorm:"not null;index" json:"from"`
	ToID   uint             `gorm:"not null;index" json:"to"`
	Type   NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Data   NotificationData `gorm:"type:jsonb" json:"data"`
	Status bool             `gorm:"default:false;index" json:"status"`
}
