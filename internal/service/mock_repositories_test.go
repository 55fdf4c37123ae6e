package service

import (
	"sort"
	"sync"
	"time"

	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/repository"
	"gorm.io/gorm"
)

// MockUserRepository is an in-memory UserRepositoryInterface for testing
type MockUserRepository struct {
	users map[uint]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User)}
}

func (m *MockUserRepository) Add(user *models.User) {
	m.users[user.ID] = user
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *MockUserRepository) PushTokens(ids []uint) (map[uint]string, error) {
	tokens := make(map[uint]string)
	for _, id := range ids {
		if u, ok := m.users[id]; ok && u.PushToken != nil && *u.PushToken != "" {
			tokens[id] = *u.PushToken
		}
	}
	return tokens, nil
}

// MockThreadRepository is an in-memory ThreadRepositoryInterface. All
// methods take the mutex so tests may append concurrently.
type MockThreadRepository struct {
	mu sync.Mutex

	threads       map[uint]*models.Thread
	byPair        map[string]uint
	nextThreadID  uint
	nextMessageID uint
}

func NewMockThreadRepository() *MockThreadRepository {
	return &MockThreadRepository{
		threads:       make(map[uint]*models.Thread),
		byPair:        make(map[string]uint),
		nextThreadID:  1,
		nextMessageID: 1,
	}
}

func (m *MockThreadRepository) ResolveOrCreate(participantA, participantB uint) (*models.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.ThreadPairKey(participantA, participantB)
	if id, ok := m.byPair[key]; ok {
		return m.snapshot(id), nil
	}

	thread := &models.Thread{
		ID:           m.nextThreadID,
		CreatedAt:    time.Now(),
		ParticipantA: participantA,
		ParticipantB: participantB,
		PairKey:      key,
	}
	m.nextThreadID++
	m.threads[thread.ID] = thread
	m.byPair[key] = thread.ID
	return m.snapshot(thread.ID), nil
}

func (m *MockThreadRepository) FindByID(id uint) (*models.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.snapshot(id), nil
}

func (m *MockThreadRepository) FindByPair(participantA, participantB uint) (*models.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byPair[models.ThreadPairKey(participantA, participantB)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.snapshot(id), nil
}

func (m *MockThreadRepository) AppendMessage(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[message.ThreadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	message.ID = m.nextMessageID
	m.nextMessageID++
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	thread.Messages = append(thread.Messages, *message)
	return nil
}

func (m *MockThreadRepository) MarkMessageSeen(threadID, messageID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[threadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range thread.Messages {
		if thread.Messages[i].ID == messageID && !thread.Messages[i].Seen {
			thread.Messages[i].Seen = true
			return nil
		}
	}
	return nil
}

func (m *MockThreadRepository) SetBlocker(threadID uint, blockerID *uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[threadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	thread.BlockerID = blockerID
	return nil
}

func (m *MockThreadRepository) AttachmentKeys(threadID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[threadID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	seen := make(map[string]struct{})
	var keys []string
	for i := range thread.Messages {
		key := thread.Messages[i].FileKey
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *MockThreadRepository) Delete(threadID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[threadID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.byPair, thread.PairKey)
	delete(m.threads, threadID)
	return nil
}

func (m *MockThreadRepository) ListForParticipant(userID uint) ([]repository.ThreadListRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []repository.ThreadListRow
	for _, thread := range m.threads {
		if !thread.HasParticipant(userID) || len(thread.Messages) == 0 {
			continue
		}
		last := thread.Messages[len(thread.Messages)-1]
		var unread int64
		var lastActivity time.Time
		for i := range thread.Messages {
			msg := &thread.Messages[i]
			if msg.ReceiverID == userID && !msg.Seen {
				unread++
			}
			if msg.CreatedAt.After(lastActivity) {
				lastActivity = msg.CreatedAt
			}
		}
		rows = append(rows, repository.ThreadListRow{
			ThreadID:          thread.ID,
			BlockerID:         thread.BlockerID,
			PeerID:            thread.PeerOf(userID),
			UnreadCount:       unread,
			MessageID:         last.ID,
			MessageSenderID:   last.SenderID,
			MessageReceiverID: last.ReceiverID,
			MessageText:       last.Text,
			MessageSeen:       last.Seen,
			MessageCreatedAt:  last.CreatedAt,
			LastActivity:      lastActivity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastActivity.After(rows[j].LastActivity)
	})
	return rows, nil
}

// ThreadCount reports how many threads exist; used to assert pair
// canonicalization.
func (m *MockThreadRepository) ThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// MockNotificationRepository is an in-memory
// NotificationRepositoryInterface for testing
type MockNotificationRepository struct {
	notifications map[uint]*models.Notification
	nextID        uint
	failCreate    bool
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[uint]*models.Notification),
		nextID:        1,
	}
}

func (m *MockNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if m.failCreate {
		return gorm.ErrInvalidTransaction
	}
	for i := range notifications {
		n := notifications[i]
		n.ID = m.nextID
		n.CreatedAt = time.Now()
		m.nextID++
		m.notifications[n.ID] = &n
	}
	return nil
}

func (m *MockNotificationRepository) FindByID(id uint) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockNotificationRepository) ListForRecipient(recipientID uint, limit int) ([]models.Notification, error) {
	var result []models.Notification
	for _, n := range m.notifications {
		if n.ToID == recipientID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.ToID == recipientID && !n.Status {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) SetRead(id uint, read bool) error {
	if n, ok := m.notifications[id]; ok {
		n.Status = read
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *MockNotificationRepository) MarkAllRead(recipientID uint) error {
	for _, n := range m.notifications {
		if n.ToID == recipientID {
			n.Status = true
		}
	}
	return nil
}

func (m *MockNotificationRepository) Delete(id uint) error {
	if _, ok := m.notifications[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *MockNotificationRepository) All() []models.Notification {
	var result []models.Notification
	for _, n := range m.notifications {
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// MockGraphRepository is an in-memory GraphRepositoryInterface for testing
type MockGraphRepository struct {
	posts          map[uint]*models.Post
	comments       map[uint]*models.Comment
	timelines      map[uint]*models.Timeline
	followers      map[uint][]uint
	shareUsers     map[uint][]uint
	shareTimelines map[uint][]uint
}

func NewMockGraphRepository() *MockGraphRepository {
	return &MockGraphRepository{
		posts:          make(map[uint]*models.Post),
		comments:       make(map[uint]*models.Comment),
		timelines:      make(map[uint]*models.Timeline),
		followers:      make(map[uint][]uint),
		shareUsers:     make(map[uint][]uint),
		shareTimelines: make(map[uint][]uint),
	}
}

func (m *MockGraphRepository) PostByID(id uint) (*models.Post, error) {
	if p, ok := m.posts[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGraphRepository) CommentByID(id uint) (*models.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGraphRepository) TimelineByID(id uint) (*models.Timeline, error) {
	if t, ok := m.timelines[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGraphRepository) TimelineFollowerIDs(timelineID uint) ([]uint, error) {
	return m.followers[timelineID], nil
}

func (m *MockGraphRepository) PostShareUserIDs(postID uint) ([]uint, error) {
	return m.shareUsers[postID], nil
}

func (m *MockGraphRepository) PostShareTimelineIDs(postID uint) ([]uint, error) {
	return m.shareTimelines[postID], nil
}

// snapshot copies a thread with messages sorted in append order so callers
// cannot mutate repository state through the returned value.
func (m *MockThreadRepository) snapshot(id uint) *models.Thread {
	thread := m.threads[id]
	copied := *thread
	copied.Messages = make([]models.Message, len(thread.Messages))
	copy(copied.Messages, thread.Messages)
	sort.Slice(copied.Messages, func(i, j int) bool {
		return copied.Messages[i].ID < copied.Messages[j].ID
	})
	return &copied
}
