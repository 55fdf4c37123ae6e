package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Alex-T-Coder/lgcy-app/internal/apperr"
	"github.com/Alex-T-Coder/lgcy-app/internal/cache"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/storage"
)

// recordingStore is an AttachmentStore that records calls.
type recordingStore struct {
	released    []string
	failRelease bool
}

func (s *recordingStore) Upload(_ context.Context, originalName, _ string, _ io.Reader, _ int64) (storage.StoredFile, error) {
	return storage.StoredFile{Key: "chat/" + originalName, URL: "https://cdn/" + originalName}, nil
}

func (s *recordingStore) Release(_ context.Context, key string) error {
	if s.failRelease {
		return errors.New("object store unavailable")
	}
	s.released = append(s.released, key)
	return nil
}

func newChatFixture() (*ChatService, *MockThreadRepository, *MockUserRepository) {
	threadRepo := NewMockThreadRepository()
	userRepo := NewMockUserRepository()
	userRepo.Add(&models.User{ID: 1, Username: "alice", Email: "alice@example.com"})
	userRepo.Add(&models.User{ID: 2, Username: "bob", Email: "bob@example.com"})
	userRepo.Add(&models.User{ID: 3, Username: "carol", Email: "carol@example.com"})

	svc := NewChatService(threadRepo, userRepo, cache.NewThreadCache(nil), nil)
	return svc, threadRepo, userRepo
}

func TestAppendMessageValidation(t *testing.T) {
	svc, _, _ := newChatFixture()

	tests := []struct {
		name  string
		input AppendMessageInput
	}{
		{name: "missing receiver", input: AppendMessageInput{Text: "hi"}},
		{name: "self message", input: AppendMessageInput{ReceiverID: 1, Text: "hi"}},
		{name: "empty payload", input: AppendMessageInput{ReceiverID: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AppendMessage(1, tt.input)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAppendMessageSharesThreadAcrossDirections(t *testing.T) {
	svc, threadRepo, _ := newChatFixture()

	first, err := svc.AppendMessage(1, AppendMessageInput{ReceiverID: 2, Text: "hello"})
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	second, err := svc.AppendMessage(2, AppendMessageInput{ReceiverID: 1, Text: "hello back"})
	if err != nil {
		t.Fatalf("second append: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected both directions to resolve thread %d, got %d", first.ID, second.ID)
	}
	if count := threadRepo.ThreadCount(); count != 1 {
		t.Errorf("expected 1 thread, got %d", count)
	}
	if len(second.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(second.Messages))
	}
}

func TestAppendMessageConcurrentNoLoss(t *testing.T) {
	svc, _, _ := newChatFixture()

	const appends = 40
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := uint(1), uint(2)
			if i%2 == 1 {
				sender, receiver = receiver, sender
			}
			if _, err := svc.AppendMessage(sender, AppendMessageInput{
				ReceiverID: receiver,
				Text:       fmt.Sprintf("msg %d", i),
			}); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	thread, err := svc.GetForPeer(1, 2)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if len(thread.Messages) != appends {
		t.Errorf("expected %d messages, got %d", appends, len(thread.Messages))
	}
}

func TestMarkSeen(t *testing.T) {
	svc, _, _ := newChatFixture()

	thread, err := svc.AppendMessage(1, AppendMessageInput{ReceiverID: 2, Text: "read me"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	messageID := thread.Messages[0].ID

	// Sender cannot flip the flag.
	if _, err := svc.MarkSeen(thread.ID, messageID, 1); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for sender, got %v", err)
	}

	// Receiver can, and the second call is a no-op.
	updated, err := svc.MarkSeen(thread.ID, messageID, 2)
	if err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if !updated.Messages[0].Seen {
		t.Error("expected message to be seen")
	}
	again, err := svc.MarkSeen(thread.ID, messageID, 2)
	if err != nil {
		t.Fatalf("repeat mark seen: %v", err)
	}
	if !again.Messages[0].Seen {
		t.Error("expected seen to stay true")
	}

	// A message id outside the thread is a validation failure.
	if _, err := svc.MarkSeen(thread.ID, messageID+100, 2); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for foreign message, got %v", err)
	}
}

func TestResolveForPeer(t *testing.T) {
	svc, threadRepo, _ := newChatFixture()

	if _, err := svc.ResolveForPeer(1, 1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for self peer, got %v", err)
	}
	if _, err := svc.ResolveForPeer(1, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown peer, got %v", err)
	}

	first, err := svc.ResolveForPeer(1, 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(first.Messages) != 0 {
		t.Errorf("expected empty new thread, got %d messages", len(first.Messages))
	}
	second, err := svc.ResolveForPeer(2, 1)
	if err != nil {
		t.Fatalf("reverse resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one thread per pair, got %d and %d", first.ID, second.ID)
	}
	if count := threadRepo.ThreadCount(); count != 1 {
		t.Errorf("expected 1 thread, got %d", count)
	}
}

func TestGetForPeerNotFound(t *testing.T) {
	svc, _, _ := newChatFixture()

	_, err := svc.GetForPeer(1, 3)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestToggleBlock(t *testing.T) {
	svc, _, _ := newChatFixture()

	thread, err := svc.AppendMessage(1, AppendMessageInput{ReceiverID: 2, Text: "hi"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := svc.ToggleBlock(thread.ID, 3); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for non-participant, got %v", err)
	}

	blocker, err := svc.ToggleBlock(thread.ID, 1)
	if err != nil {
		t.Fatalf("set block: %v", err)
	}
	if blocker == nil || *blocker != 1 {
		t.Errorf("expected blocker 1, got %v", blocker)
	}

	// The other participant may clear an existing block.
	cleared, err := svc.ToggleBlock(thread.ID, 2)
	if err != nil {
		t.Fatalf("clear block: %v", err)
	}
	if cleared != nil {
		t.Errorf("expected cleared blocker, got %v", *cleared)
	}
}

func TestDeleteThreadReleasesAttachments(t *testing.T) {
	threadRepo := NewMockThreadRepository()
	userRepo := NewMockUserRepository()
	userRepo.Add(&models.User{ID: 1, Username: "alice"})
	userRepo.Add(&models.User{ID: 2, Username: "bob"})
	store := &recordingStore{}
	svc := NewChatService(threadRepo, userRepo, cache.NewThreadCache(nil), store)

	thread, err := svc.AppendMessage(1, AppendMessageInput{
		ReceiverID: 2,
		File:       &FileInput{Mime: "image/png", Name: "a.png", Key: "chat/a", URL: "https://cdn/a"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same key twice: release must still happen once.
	if _, err := svc.AppendMessage(2, AppendMessageInput{
		ReceiverID: 1,
		File:       &FileInput{Mime: "image/png", Name: "a.png", Key: "chat/a", URL: "https://cdn/a"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.DeleteThread(context.Background(), thread.ID, 3); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for non-participant, got %v", err)
	}

	if err := svc.DeleteThread(context.Background(), thread.ID, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.released) != 1 || store.released[0] != "chat/a" {
		t.Errorf("expected single release of chat/a, got %v", store.released)
	}
	if _, err := svc.GetForPeer(1, 2); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected thread gone, got %v", err)
	}
}

func TestDeleteThreadSurvivesReleaseFailure(t *testing.T) {
	threadRepo := NewMockThreadRepository()
	userRepo := NewMockUserRepository()
	userRepo.Add(&models.User{ID: 1, Username: "alice"})
	userRepo.Add(&models.User{ID: 2, Username: "bob"})
	store := &recordingStore{failRelease: true}
	svc := NewChatService(threadRepo, userRepo, cache.NewThreadCache(nil), store)

	thread, err := svc.AppendMessage(1, AppendMessageInput{
		ReceiverID: 2,
		File:       &FileInput{Mime: "image/png", Name: "a.png", Key: "chat/a", URL: "https://cdn/a"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.DeleteThread(context.Background(), thread.ID, 1); err != nil {
		t.Errorf("expected delete to survive release failure, got %v", err)
	}
}

func TestListForParticipantOrdering(t *testing.T) {
	svc, threadRepo, _ := newChatFixture()

	first, err := svc.AppendMessage(1, AppendMessageInput{ReceiverID: 2, Text: "old"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := svc.AppendMessage(1, AppendMessageInput{ReceiverID: 3, Text: "new"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	// Push the first thread's activity past the second's.
	backdate(threadRepo, first.ID, -time.Hour)

	summaries, err := svc.ListForParticipant(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != second.ID {
		t.Errorf("expected thread %d first, got %d", second.ID, summaries[0].ID)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Text != "new" {
		t.Errorf("unexpected last message: %+v", summaries[0].LastMessage)
	}

	// Both messages target other users, so the sender has nothing unread.
	if summaries[0].UnreadCount != 0 {
		t.Errorf("expected 0 unread for sender, got %d", summaries[0].UnreadCount)
	}
	peerView, err := svc.ListForParticipant(2)
	if err != nil {
		t.Fatalf("peer list: %v", err)
	}
	if len(peerView) != 1 || peerView[0].UnreadCount != 1 {
		t.Errorf("expected 1 unread for receiver, got %+v", peerView)
	}
}

func TestUploadAttachmentWithoutStorage(t *testing.T) {
	svc, _, _ := newChatFixture()

	_, err := svc.UploadAttachment(context.Background(), "a.png", "image/png", nil, 10)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error without storage, got %v", err)
	}
}

// backdate shifts every message of a thread by d so list ordering is
// deterministic regardless of test wall-clock resolution.
func backdate(repo *MockThreadRepository, threadID uint, d time.Duration) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	thread := repo.threads[threadID]
	for i := range thread.Messages {
		thread.Messages[i].CreatedAt = thread.Messages[i].CreatedAt.Add(d)
	}
}
