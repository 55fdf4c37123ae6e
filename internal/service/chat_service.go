package service

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/Alex-T-Coder/lgcy-app/internal/apperr"
	"github.com/Alex-T-Coder/lgcy-app/internal/cache"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/repository"
	"github.com/Alex-T-Coder/lgcy-app/internal/storage"
	"gorm.io/gorm"
)

// AttachmentStore is the slice of the object-storage collaborator the chat
// service needs. Release failures are non-fatal by contract.
type AttachmentStore interface {
	Upload(ctx context.Context, originalName, contentType string, body io.Reader, size int64) (storage.StoredFile, error)
	Release(ctx context.Context, key string) error
}

type ChatService struct {
	threadRepo  repository.ThreadRepositoryInterface
	userRepo    repository.UserRepositoryInterface
	threadCache *cache.ThreadCache
	attachments AttachmentStore
}

func NewChatService(
	threadRepo repository.ThreadRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	threadCache *cache.ThreadCache,
	attachments AttachmentStore,
) *ChatService {
	return &ChatService{
		threadRepo:  threadRepo,
		userRepo:    userRepo,
		threadCache: threadCache,
		attachments: attachments,
	}
}

type FileInput struct {
	Mime string `json:"mime"`
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url"`
}

type AppendMessageInput struct {
	ReceiverID uint       `json:"receiver_id"`
	Text       string     `json:"text"`
	File       *FileInput `json:"file,omitempty"`
}

// AppendMessage resolves (or creates) the thread for the sender/receiver
// pair and appends one message. It does not emit a notification; callers
// chain the fan-out after the append commits.
func (s *ChatService) AppendMessage(senderID uint, input AppendMessageInput) (*models.ThreadResponse, error) {
	if input.ReceiverID == 0 || input.ReceiverID == senderID {
		return nil, apperr.Validation("receiver must be another user")
	}
	if input.Text == "" && input.File == nil {
		return nil, apperr.Validation("message needs text or a file")
	}

	thread, err := s.threadRepo.ResolveOrCreate(senderID, input.ReceiverID)
	if err != nil {
		return nil, apperr.Storage("resolve thread", err)
	}

	message := &models.Message{
		ThreadID:   thread.ID,
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Text:       input.Text,
	}
	if input.File != nil {
		message.FileMime = input.File.Mime
		message.FileName = input.File.Name
		message.FileKey = input.File.Key
		message.FileURL = input.File.URL
	}

	if err := s.threadRepo.AppendMessage(message); err != nil {
		return nil, apperr.Storage("append message", err)
	}

	s.invalidateThreadLists(senderID, input.ReceiverID)

	return s.materialize(thread.ID)
}

// MarkSeen idempotently sets seen=true on a message. Only the receiver may
// flip it; a message outside the thread is a validation failure.
func (s *ChatService) MarkSeen(threadID, messageID, actingUserID uint) (*models.ThreadResponse, error) {
	thread, err := s.findThread(threadID)
	if err != nil {
		return nil, err
	}

	var message *models.Message
	for i := range thread.Messages {
		if thread.Messages[i].ID == messageID {
			message = &thread.Messages[i]
			break
		}
	}
	if message == nil {
		return nil, apperr.Validation("message does not belong to thread")
	}
	if message.ReceiverID != actingUserID {
		return nil, apperr.Unauthorized("only the receiver may mark a message seen")
	}

	if !message.Seen {
		if err := s.threadRepo.MarkMessageSeen(threadID, messageID); err != nil {
			return nil, apperr.Storage("mark seen", err)
		}
	}

	return s.materialize(threadID)
}

// ResolveForPeer returns the thread between the acting user and a peer,
// creating an empty one on first contact.
func (s *ChatService) ResolveForPeer(actingUserID, peerID uint) (*models.ThreadResponse, error) {
	if peerID == 0 || peerID == actingUserID {
		return nil, apperr.Validation("peer must be another user")
	}
	if _, err := s.userRepo.FindByID(peerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("peer")
		}
		return nil, apperr.Storage("resolve peer", err)
	}
	thread, err := s.threadRepo.ResolveOrCreate(actingUserID, peerID)
	if err != nil {
		return nil, apperr.Storage("resolve thread", err)
	}
	return s.materialize(thread.ID)
}

// GetForPeer returns the thread between the acting user and a peer, or
// NotFound when no conversation exists yet.
func (s *ChatService) GetForPeer(actingUserID, peerID uint) (*models.ThreadResponse, error) {
	thread, err := s.threadRepo.FindByPair(actingUserID, peerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("thread")
		}
		return nil, apperr.Storage("find thread", err)
	}
	return s.materialize(thread.ID)
}

// ListForParticipant returns the user's conversations, newest activity
// first.
func (s *ChatService) ListForParticipant(userID uint) ([]models.ThreadSummary, error) {
	if cached, ok := s.threadCache.GetThreadList(userID); ok {
		return cached, nil
	}

	rows, err := s.threadRepo.ListForParticipant(userID)
	if err != nil {
		return nil, apperr.Storage("list threads", err)
	}

	summaries := make([]models.ThreadSummary, 0, len(rows))
	for _, row := range rows {
		last := models.MessageResponse{
			ID:         row.MessageID,
			ThreadID:   row.ThreadID,
			SenderID:   row.MessageSenderID,
			ReceiverID: row.MessageReceiverID,
			Text:       row.MessageText,
			FileMime:   row.MessageFileMime,
			FileName:   row.MessageFileName,
			FileURL:    row.MessageFileURL,
			Seen:       row.MessageSeen,
			CreatedAt:  row.MessageCreatedAt,
		}
		summaries = append(summaries, models.ThreadSummary{
			ID: row.ThreadID,
			Peer: models.UserResponse{
				ID:          row.PeerID,
				Username:    row.PeerUsername,
				Name:        row.PeerName,
				Description: row.PeerDescription,
				Image:       row.PeerImage,
			},
			BlockerID:    row.BlockerID,
			LastMessage:  &last,
			UnreadCount:  row.UnreadCount,
			LastActivity: row.LastActivity,
		})
	}

	if err := s.threadCache.SetThreadList(userID, summaries); err != nil {
		log.Printf("chat: caching thread list for user %d failed: %v", userID, err)
	}

	return summaries, nil
}

// ToggleBlock sets the blocker to the acting participant when unset and
// clears it otherwise. Either participant may clear an existing block.
func (s *ChatService) ToggleBlock(threadID, actingUserID uint) (*uint, error) {
	thread, err := s.findThread(threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(actingUserID) {
		return nil, apperr.Unauthorized("not a participant of this thread")
	}

	var blocker *uint
	if thread.BlockerID == nil {
		blocker = &actingUserID
	}
	if err := s.threadRepo.SetBlocker(threadID, blocker); err != nil {
		return nil, apperr.Storage("set blocker", err)
	}

	s.invalidateThreadLists(thread.ParticipantA, thread.ParticipantB)
	return blocker, nil
}

// DeleteThread removes the thread with its messages, then releases each
// distinct attachment. A failed release is logged and skipped; deletion is
// already durable at that point.
func (s *ChatService) DeleteThread(ctx context.Context, threadID, actingUserID uint) error {
	thread, err := s.findThread(threadID)
	if err != nil {
		return err
	}
	if !thread.HasParticipant(actingUserID) {
		return apperr.Unauthorized("not a participant of this thread")
	}

	keys, err := s.threadRepo.AttachmentKeys(threadID)
	if err != nil {
		return apperr.Storage("list attachments", err)
	}

	if err := s.threadRepo.Delete(threadID); err != nil {
		return apperr.Storage("delete thread", err)
	}

	if s.attachments != nil {
		for _, key := range keys {
			if err := s.attachments.Release(ctx, key); err != nil {
				log.Printf("chat: releasing attachment %s of thread %d failed: %v", key, threadID, err)
			}
		}
	}

	s.invalidateThreadLists(thread.ParticipantA, thread.ParticipantB)
	return nil
}

// UploadAttachment stores a chat file and returns the descriptor to embed in
// a message.
func (s *ChatService) UploadAttachment(ctx context.Context, originalName, contentType string, body io.Reader, size int64) (*FileInput, error) {
	if s.attachments == nil {
		return nil, apperr.Validation("attachment storage not configured")
	}
	stored, err := s.attachments.Upload(ctx, originalName, contentType, body, size)
	if err != nil {
		return nil, apperr.Storage("upload attachment", err)
	}
	return &FileInput{
		Mime: contentType,
		Name: originalName,
		Key:  stored.Key,
		URL:  stored.URL,
	}, nil
}

func (s *ChatService) findThread(threadID uint) (*models.Thread, error) {
	thread, err := s.threadRepo.FindByID(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("thread")
		}
		return nil, apperr.Storage("find thread", err)
	}
	return thread, nil
}

// materialize expands a thread for display: participant profiles resolved,
// messages in append order.
func (s *ChatService) materialize(threadID uint) (*models.ThreadResponse, error) {
	thread, err := s.findThread(threadID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.FindByIDs([]uint{thread.ParticipantA, thread.ParticipantB})
	if err != nil {
		return nil, apperr.Storage("load participants", err)
	}
	profiles := make(map[uint]models.UserResponse, len(users))
	for _, u := range users {
		profiles[u.ID] = u.ToResponse()
	}

	resp := &models.ThreadResponse{
		ID:        thread.ID,
		Sender:    profiles[thread.ParticipantA],
		Receiver:  profiles[thread.ParticipantB],
		BlockerID: thread.BlockerID,
		CreatedAt: thread.CreatedAt,
		Messages:  make([]models.MessageResponse, 0, len(thread.Messages)),
	}
	for i := range thread.Messages {
		m := &thread.Messages[i]
		resp.Messages = append(resp.Messages, m.ToResponse(profiles[m.SenderID]))
	}
	return resp, nil
}

func (s *ChatService) invalidateThreadLists(userIDs ...uint) {
	for _, id := range userIDs {
		if err := s.threadCache.InvalidateThreadList(id); err != nil {
			log.Printf("chat: invalidating thread list for user %d failed: %v", id, err)
		}
	}
}
