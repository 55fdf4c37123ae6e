package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/Alex-T-Coder/lgcy-app/internal/apperr"
	"github.com/Alex-T-Coder/lgcy-app/internal/cache"
	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"github.com/Alex-T-Coder/lgcy-app/internal/push"
	"github.com/Alex-T-Coder/lgcy-app/internal/repository"
	"gorm.io/gorm"
)

// SessionNotifier is the live-session delivery path: recipients with an open
// socket get the payload immediately, in addition to any device push.
type SessionNotifier interface {
	NotifyUser(userID uint, payload interface{})
}

type NotificationService struct {
	notificationRepo repository.NotificationRepositoryInterface
	userRepo         repository.UserRepositoryInterface
	graph            repository.GraphRepositoryInterface
	dispatcher       push.Dispatcher
	sessions         SessionNotifier
	notifCache       *cache.NotificationCache
}

func NewNotificationService(
	notificationRepo repository.NotificationRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	graph repository.GraphRepositoryInterface,
	dispatcher push.Dispatcher,
	sessions SessionNotifier,
	notifCache *cache.NotificationCache,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		graph:            graph,
		dispatcher:       dispatcher,
		sessions:         sessions,
		notifCache:       notifCache,
	}
}

// resolution is the outcome of recipient resolution for one event: the
// deduplicated recipient set and the type-scoped payload.
type resolution struct {
	recipients []uint
	data       models.NotificationData
	title      string
	text       string
}

// FanOut expands one social event into a notification per recipient.
// Persistence completes (all recipients or none) before any push is
// attempted; push outcome never reaches the caller. Callers that must not
// wait on the provider timeout run FanOut itself in a goroutine.
//
// body carries the triggering free text where the event has one (comment
// text, message text).
func (s *NotificationService) FanOut(ctx context.Context, eventType models.NotificationType, actorID, subjectID uint, body string) error {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("unknown actor")
		}
		return apperr.Storage("resolve actor", err)
	}

	res, err := s.resolve(eventType, actor.Username, subjectID)
	if err != nil {
		// Unresolvable subject (deleted concurrently, unknown type): abort
		// with zero partial writes.
		return err
	}
	if len(res.recipients) == 0 {
		return nil
	}

	notifications := make([]models.Notification, 0, len(res.recipients))
	for _, recipient := range res.recipients {
		notifications = append(notifications, models.Notification{
			FromID: actorID,
			ToID:   recipient,
			Type:   eventType,
			Data:   res.data,
		})
	}
	if err := s.notificationRepo.CreateBatch(notifications); err != nil {
		return apperr.Storage("persist notifications", err)
	}
	for _, recipient := range res.recipients {
		if err := s.notifCache.InvalidateUnreadCount(recipient); err != nil {
			log.Printf("notification: invalidating unread count for user %d failed: %v", recipient, err)
		}
	}

	s.deliver(ctx, res, eventType, body)
	return nil
}

// deliver runs the best-effort channels: live-session push for connected
// recipients, device push for recipients with a token. Failures are logged,
// never returned.
func (s *NotificationService) deliver(ctx context.Context, res *resolution, eventType models.NotificationType, body string) {
	if s.sessions != nil {
		payload := map[string]interface{}{
			"type":  "notification",
			"event": string(eventType),
			"title": res.title,
			"text":  res.text,
			"data":  res.data,
		}
		for _, recipient := range res.recipients {
			s.sessions.NotifyUser(recipient, payload)
		}
	}

	if s.dispatcher == nil {
		return
	}
	tokensByUser, err := s.userRepo.PushTokens(res.recipients)
	if err != nil {
		log.Printf("notification: resolving push tokens failed: %v", err)
		return
	}
	tokens := make([]string, 0, len(tokensByUser))
	for _, token := range tokensByUser {
		tokens = append(tokens, token)
	}
	// An empty token list skips the provider call entirely.
	if len(tokens) == 0 {
		return
	}

	note := push.Note{
		Title: res.title,
		Body:  res.text,
		Data:  map[string]string{"type": string(eventType)},
	}
	if body != "" {
		note.Data["message"] = body
	}
	result := s.dispatcher.Deliver(ctx, note, tokens)
	if result.Failed > 0 {
		log.Printf("notification: push delivered %d/%d", result.Delivered, result.Attempted)
	}
}

// resolve dispatches to the per-type recipient rule. Each rule is pure over
// the graph accessor and returns only entity ids related to its event.
func (s *NotificationService) resolve(eventType models.NotificationType, actorName string, subjectID uint) (*resolution, error) {
	switch eventType {
	case models.NotificationComment:
		return s.resolveComment(actorName, subjectID)
	case models.NotificationLike:
		return s.resolveLike(actorName, subjectID)
	case models.NotificationLikeComment:
		return s.resolveLikeComment(actorName, subjectID)
	case models.NotificationPost:
		return s.resolvePost(actorName, subjectID)
	case models.NotificationTimeline:
		return s.resolveTimeline(actorName, subjectID)
	case models.NotificationMessage:
		return s.resolveMessage(actorName, subjectID)
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown notification type %q", eventType))
	}
}

// comment on a post -> the post's creator.
func (s *NotificationService) resolveComment(actorName string, postID uint) (*resolution, error) {
	post, err := s.graph.PostByID(postID)
	if err != nil {
		return nil, subjectErr("post", err)
	}
	return &resolution{
		recipients: []uint{post.CreatorID},
		data:       models.NotificationData{Posts: []uint{post.ID}},
		title:      "New Comment Created",
		text:       fmt.Sprintf("%s commented on your post", actorName),
	}, nil
}

// like on a post -> the post's creator.
func (s *NotificationService) resolveLike(actorName string, postID uint) (*resolution, error) {
	post, err := s.graph.PostByID(postID)
	if err != nil {
		return nil, subjectErr("post", err)
	}
	return &resolution{
		recipients: []uint{post.CreatorID},
		data:       models.NotificationData{Posts: []uint{post.ID}},
		title:      "Post Liked",
		text:       fmt.Sprintf("%s liked your post", actorName),
	}, nil
}

// like on a comment -> the comment's author; payload references the
// comment's post.
func (s *NotificationService) resolveLikeComment(actorName string, commentID uint) (*resolution, error) {
	comment, err := s.graph.CommentByID(commentID)
	if err != nil {
		return nil, subjectErr("comment", err)
	}
	return &resolution{
		recipients: []uint{comment.AuthorID},
		data:       models.NotificationData{Posts: []uint{comment.PostID}},
		title:      "Comment Liked",
		text:       fmt.Sprintf("%s liked your comment", actorName),
	}, nil
}

// new post -> union of the post's direct share users and every follower of
// every shared timeline. Dedup is by account id: a user reachable through
// two timelines is notified once.
func (s *NotificationService) resolvePost(actorName string, postID uint) (*resolution, error) {
	post, err := s.graph.PostByID(postID)
	if err != nil {
		return nil, subjectErr("post", err)
	}

	seen := make(map[uint]struct{})
	shareUsers, err := s.graph.PostShareUserIDs(post.ID)
	if err != nil {
		return nil, apperr.Storage("resolve share users", err)
	}
	for _, id := range shareUsers {
		seen[id] = struct{}{}
	}

	timelineIDs, err := s.graph.PostShareTimelineIDs(post.ID)
	if err != nil {
		return nil, apperr.Storage("resolve share timelines", err)
	}
	for _, timelineID := range timelineIDs {
		followers, err := s.graph.TimelineFollowerIDs(timelineID)
		if err != nil {
			return nil, apperr.Storage("resolve timeline followers", err)
		}
		for _, id := range followers {
			seen[id] = struct{}{}
		}
	}

	recipients := make([]uint, 0, len(seen))
	for id := range seen {
		recipients = append(recipients, id)
	}
	// Stable order keeps persistence deterministic; set semantics make the
	// order itself meaningless.
	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })

	return &resolution{
		recipients: recipients,
		data:       models.NotificationData{Posts: []uint{post.ID}},
		title:      "New Post Created",
		text:       fmt.Sprintf("%s shared a post", actorName),
	}, nil
}

// timeline follow -> the timeline's creator.
func (s *NotificationService) resolveTimeline(actorName string, timelineID uint) (*resolution, error) {
	timeline, err := s.graph.TimelineByID(timelineID)
	if err != nil {
		return nil, subjectErr("timeline", err)
	}
	return &resolution{
		recipients: []uint{timeline.CreatorID},
		data:       models.NotificationData{Timelines: []uint{timeline.ID}},
		title:      "Followed Timeline",
		text:       fmt.Sprintf("%s followed your timeline", actorName),
	}, nil
}

// direct message -> the receiver. The subject is the receiving user.
func (s *NotificationService) resolveMessage(actorName string, receiverID uint) (*resolution, error) {
	if _, err := s.userRepo.FindByID(receiverID); err != nil {
		return nil, subjectErr("receiver", err)
	}
	return &resolution{
		recipients: []uint{receiverID},
		data:       models.NotificationData{Users: []uint{receiverID}},
		title:      "New Message",
		text:       fmt.Sprintf("%s messaged you", actorName),
	}, nil
}

func subjectErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Validation(what + " cannot be resolved")
	}
	return apperr.Storage("resolve "+what, err)
}

// MarkRead idempotently sets the read status of one notification.
func (s *NotificationService) MarkRead(notificationID uint, read bool) error {
	notification, err := s.findNotification(notificationID)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.SetRead(notificationID, read); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("notification")
		}
		return apperr.Storage("mark read", err)
	}
	if err := s.notifCache.InvalidateUnreadCount(notification.ToID); err != nil {
		log.Printf("notification: invalidating unread count for user %d failed: %v", notification.ToID, err)
	}
	return nil
}

// MarkAllRead bulk-sets every notification of a recipient to read.
func (s *NotificationService) MarkAllRead(recipientID uint) error {
	if err := s.notificationRepo.MarkAllRead(recipientID); err != nil {
		return apperr.Storage("mark all read", err)
	}
	if err := s.notifCache.InvalidateUnreadCount(recipientID); err != nil {
		log.Printf("notification: invalidating unread count for user %d failed: %v", recipientID, err)
	}
	return nil
}

// CountUnread returns the recipient's unread notification count.
func (s *NotificationService) CountUnread(recipientID uint) (int64, error) {
	if cached, ok := s.notifCache.GetUnreadCount(recipientID); ok {
		return cached, nil
	}
	count, err := s.notificationRepo.CountUnread(recipientID)
	if err != nil {
		return 0, apperr.Storage("count unread", err)
	}
	if err := s.notifCache.SetUnreadCount(recipientID, count); err != nil {
		log.Printf("notification: caching unread count for user %d failed: %v", recipientID, err)
	}
	return count, nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *NotificationService) ListForRecipient(recipientID uint, limit int) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListForRecipient(recipientID, limit)
	if err != nil {
		return nil, apperr.Storage("list notifications", err)
	}
	return notifications, nil
}

// Delete removes a notification. Only its creator (the actor) may delete;
// recipients cannot.
func (s *NotificationService) Delete(notificationID, actingUserID uint) error {
	notification, err := s.findNotification(notificationID)
	if err != nil {
		return err
	}
	if notification.FromID != actingUserID {
		return apperr.Unauthorized("only the creator may delete a notification")
	}
	if err := s.notificationRepo.Delete(notificationID); err != nil {
		return apperr.Storage("delete notification", err)
	}
	if err := s.notifCache.InvalidateUnreadCount(notification.ToID); err != nil {
		log.Printf("notification: invalidating unread count for user %d failed: %v", notification.ToID, err)
	}
	return nil
}

func (s *NotificationService) findNotification(id uint) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("notification")
		}
		return nil, apperr.Storage("find notification", err)
	}
	return notification, nil
}
