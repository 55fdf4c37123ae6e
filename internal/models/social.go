package models

import (
	"time"

	"gorm.io/gorm"
)

// The social graph the fan-out engine expands over. These tables are owned
// by the post/timeline CRUD surface; this subsystem only reads them.

type Timeline struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title     string `gorm:"not null" json:"title"`
	CreatorID uint   `gorm:"not null;index" json:"creator_id"`
}

type TimelineFollower struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	TimelineID uint      `gorm:"not null;index;uniqueIndex:idx_timeline_follower" json:"timeline_id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_timeline_follower" json:"user_id"`
}

type Post struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CreatorID   uint   `gorm:"not null;index" json:"creator_id"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `json:"location"`
}

// PostShareUser is a direct share target of a post.
type PostShareUser struct {
	ID     uint `gorm:"primarykey" json:"id"`
	PostID uint `gorm:"not null;index;uniqueIndex:idx_post_share_user" json:"post_id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_post_share_user" json:"user_id"`
}

// PostShareTimeline shares a post to a timeline; every follower of the
// timeline becomes a notification recipient.
type PostShareTimeline struct {
	ID         uint `gorm:"primarykey" json:"id"`
	PostID     uint `gorm:"not null;index;uniqueIndex:idx_post_share_timeline" json:"post_id"`
	TimelineID uint `gorm:"not null;uniqueIndex:idx_post_share_timeline" json:"timeline_id"`
}

type Comment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PostID   uint   `gorm:"not null;index" json:"post_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Text     string `gorm:"type:text" json:"text"`
}
