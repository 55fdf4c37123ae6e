package repository

import (
	"errors"

	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"gorm.io/gorm"
)

type ThreadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// ResolveOrCreate returns the single thread for an unordered participant
// pair, creating it when absent. The unique index on pair_key makes the
// create exclusive; when two first-messages race, the loser's insert fails
// with a duplicate key and the existing thread is fetched instead.
func (r *ThreadRepository) ResolveOrCreate(participantA, participantB uint) (*models.Thread, error) {
	if existing, err := r.FindByPair(participantA, participantB); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	thread := &models.Thread{
		ParticipantA: participantA,
		ParticipantB: participantB,
		PairKey:      models.ThreadPairKey(participantA, participantB),
	}
	err := r.db.Create(thread).Error
	if err == nil {
		return thread, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the creation race; the winner's thread must exist now.
		return r.FindByPair(participantA, participantB)
	}
	return nil, err
}

func (r *ThreadRepository) FindByID(id uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC, messages.id ASC")
		}).
		First(&thread, id).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *ThreadRepository) FindByPair(participantA, participantB uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC, messages.id ASC")
		}).
		Where("pair_key = ?", models.ThreadPairKey(participantA, participantB)).
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// AppendMessage inserts one message row. Messages are rows rather than an
// embedded array, so concurrent appends to the same thread never clobber
// each other.
func (r *ThreadRepository) AppendMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// MarkMessageSeen flips seen to true. The seen = false predicate makes a
// repeat call a zero-row no-op instead of an error.
func (r *ThreadRepository) MarkMessageSeen(threadID, messageID uint) error {
	return r.db.Model(&models.Message{}).
		Where("id = ? AND thread_id = ? AND seen = false", messageID, threadID).
		Update("seen", true).Error
}

func (r *ThreadRepository) SetBlocker(threadID uint, blockerID *uint) error {
	return r.db.Model(&models.Thread{}).
		Where("id = ?", threadID).
		Update("blocker_id", blockerID).Error
}

// AttachmentKeys returns the distinct storage keys referenced by the
// thread's messages, for release on thread deletion.
func (r *ThreadRepository) AttachmentKeys(threadID uint) ([]string, error) {
	var keys []string
	err := r.db.Model(&models.Message{}).
		Where("thread_id = ? AND file_key <> ''", threadID).
		Distinct().
		Pluck("file_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Delete removes the thread and all of its messages in one transaction.
func (r *ThreadRepository) Delete(threadID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, threadID).Error
	})
}
