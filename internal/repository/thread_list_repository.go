package repository

import (
	"strings"
	"time"
)

// ThreadListRow is a denormalized row for the conversation list: one row per
// thread with the peer profile, the newest message and the unread count.
//
// NOTE: deliberately not the full models.User / models.Message shape to
// avoid leaking sensitive fields (peer email, push token) and to keep the
// query single-pass.
type ThreadListRow struct {
	ThreadID  uint  `gorm:"column:thread_id"`
	BlockerID *uint `gorm:"column:blocker_id"`

	PeerID          uint   `gorm:"column:peer_id"`
	PeerUsername    string `gorm:"column:peer_username"`
	PeerName        string `gorm:"column:peer_name"`
	PeerDescription string `gorm:"column:peer_description"`
	PeerImage       string `gorm:"column:peer_image"`

	UnreadCount int64 `gorm:"column:unread_count"`

	MessageID         uint      `gorm:"column:message_id"`
	MessageSenderID   uint      `gorm:"column:message_sender_id"`
	MessageReceiverID uint      `gorm:"column:message_receiver_id"`
	MessageText       string    `gorm:"column:message_text"`
	MessageFileMime   string    `gorm:"column:message_file_mime"`
	MessageFileName   string    `gorm:"column:message_file_name"`
	MessageFileURL    string    `gorm:"column:message_file_url"`
	MessageSeen       bool      `gorm:"column:message_seen"`
	MessageCreatedAt  time.Time `gorm:"column:message_created_at"`

	// LastActivity is max(messages.created_at) for the thread. The list is
	// ordered by it, not by the thread's updated_at, so administrative edits
	// (block toggles, seen flips) never reorder conversations.
	LastActivity time.Time `gorm:"column:last_activity"`
}

// ListForParticipant returns all threads where the user is either
// participant, newest activity first.
//
// Single query, no N+1: a window function picks the latest message per
// thread and computes the unread count in the same pass.
func (r *ThreadRepository) ListForParticipant(userID uint) ([]ThreadListRow, error) {
	query := strings.TrimSpace(`
WITH ranked AS (
	SELECT
		m.thread_id,
		m.id AS message_id,
		m.sender_id AS message_sender_id,
		m.receiver_id AS message_receiver_id,
		m.text AS message_text,
		m.file_mime AS message_file_mime,
		m.file_name AS message_file_name,
		m.file_url AS message_file_url,
		m.seen AS message_seen,
		m.created_at AS message_created_at,
		ROW_NUMBER() OVER (
			PARTITION BY m.thread_id
			ORDER BY m.created_at DESC, m.id DESC
		) AS rn,
		SUM(CASE WHEN m.receiver_id = ? AND m.seen = false THEN 1 ELSE 0 END) OVER (
			PARTITION BY m.thread_id
		) AS unread_count,
		MAX(m.created_at) OVER (PARTITION BY m.thread_id) AS last_activity
	FROM messages m
	WHERE m.deleted_at IS NULL
)
SELECT
	t.id AS thread_id,
	t.blocker_id,
	peer.id AS peer_id,
	peer.username AS peer_username,
	peer.name AS peer_name,
	peer.description AS peer_description,
	peer.image AS peer_image,
	r.unread_count,
	r.message_id,
	r.message_sender_id,
	r.message_receiver_id,
	r.message_text,
	r.message_file_mime,
	r.message_file_name,
	r.message_file_url,
	r.message_seen,
	r.message_created_at,
	r.last_activity
FROM threads t
JOIN ranked r ON r.thread_id = t.id AND r.rn = 1
JOIN users peer ON peer.id = CASE WHEN t.participant_a = ? THEN t.participant_b ELSE t.participant_a END
WHERE
	t.deleted_at IS NULL
	AND (t.participant_a = ? OR t.participant_b = ?)
ORDER BY r.last_activity DESC, r.message_id DESC
`)

	var rows []ThreadListRow
	err := r.db.Raw(query, userID, userID, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
