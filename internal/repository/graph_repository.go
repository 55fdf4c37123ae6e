package repository

import (
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"gorm.io/gorm"
)

// GraphRepository answers the read-only relational queries recipient
// resolution needs: ownership chains, follower lists and share lists.
type GraphRepository struct {
	db *gorm.DB
}

func NewGraphRepository(db *gorm.DB) *GraphRepository {
	return &GraphRepository{db: db}
}

func (r *GraphRepository) PostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *GraphRepository) CommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GraphRepository) TimelineByID(id uint) (*models.Timeline, error) {
	var timeline models.Timeline
	if err := r.db.First(&timeline, id).Error; err != nil {
		return nil, err
	}
	return &timeline, nil
}

func (r *GraphRepository) TimelineFollowerIDs(timelineID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.TimelineFollower{}).
		Where("timeline_id = ?", timelineID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GraphRepository) PostShareUserIDs(postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.PostShareUser{}).
		Where("post_id = ?", postID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GraphRepository) PostShareTimelineIDs(postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.PostShareTimeline{}).
		Where("post_id = ?", postID).
		Pluck("timeline_id", &ids).Error
	return ids, err
}
