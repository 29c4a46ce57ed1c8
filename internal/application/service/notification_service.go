package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"github.com/garyjia/case-tracker/internal/idgen"
)

// NotificationService stores in-app messages and manages their read state
type NotificationService interface {
	Notify(ctx context.Context, toUserID, subject, content, caseID string) (*entity.InternalMessage, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]*entity.InternalMessage, error)
	MarkRead(ctx context.Context, messageID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// HandleCaseEvent tells the case's assigned user about a recorded transition
	HandleCaseEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	messageRepo port.MessageRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(messageRepo port.MessageRepository, txManager port.TransactionManager, logger Logger) NotificationService {
	return &notificationServiceImpl{
		messageRepo: messageRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *notificationServiceImpl) Notify(ctx context.Context, toUserID, subject, content, caseID string) (*entity.InternalMessage, error) {
	if strings.TrimSpace(toUserID) == "" {
		return nil, invalidInput("notification has no recipient")
	}

	msg := &entity.InternalMessage{
		ID:       idgen.NewRecord(),
		ToUserID: toUserID,
		Subject:  subject,
		Content:  content,
		CaseID:   caseID,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to store notification", "error", err, "to_user_id", toUserID)
		return nil, Classify("notify", err)
	}

	s.logger.Info("Notification stored", "message_id", msg.ID, "to_user_id", toUserID, "case_id", caseID)
	return msg, nil
}

func (s *notificationServiceImpl) List(ctx context.Context, userID string, unreadOnly bool) ([]*entity.InternalMessage, error) {
	msgs, err := s.messageRepo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, Classify("list notifications", err)
	}
	if msgs == nil {
		msgs = []*entity.InternalMessage{}
	}
	return msgs, nil
}

// MarkRead fails with ErrForbidden when userID does not own the message
func (s *notificationServiceImpl) MarkRead(ctx context.Context, messageID, userID string) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		msg, err := s.messageRepo.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg == nil {
			return notFound("notification", messageID)
		}
		if msg.ToUserID != userID {
			return fmt.Errorf("%w: notification %s belongs to another user", ErrForbidden, messageID)
		}
		if msg.IsRead {
			return nil
		}
		return s.messageRepo.MarkRead(ctx, messageID)
	})
	return Classify("mark notification read", err)
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.messageRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, Classify("mark all notifications read", err)
	}
	s.logger.Info("Notifications marked read", "user_id", userID, "count", n)
	return n, nil
}

func (s *notificationServiceImpl) HandleCaseEvent(ctx context.Context, evt *event.Event) error {
	to := evt.GetPayloadString(event.PayloadAssignedUserID)
	if to == "" {
		return nil
	}

	ref := evt.GetPayloadString(event.PayloadCaseNumber)
	if ref == "" {
		ref = evt.CaseID
	}
	subject, content := describeEvent(evt, ref)
	_, err := s.Notify(ctx, to, subject, content, evt.CaseID)
	return err
}

func describeEvent(evt *event.Event, ref string) (subject, content string) {
	title := evt.GetPayloadString(event.PayloadTemplateTitle)
	if title != "" {
		ref = fmt.Sprintf("%s (%s)", ref, title)
	}

	switch evt.Type {
	case event.TypeStageChange:
		return fmt.Sprintf("Case %s requires your attention", ref),
			fmt.Sprintf("Case %s moved from %s to %s.", ref, evt.OldValue, evt.NewValue)
	case event.TypeCompleted:
		return fmt.Sprintf("Case %s completed", ref),
			fmt.Sprintf("Case %s was completed at stage %s because no later stage is configured.", ref, evt.OldValue)
	default:
		return fmt.Sprintf("Case %s is now %s", ref, evt.NewValue),
			fmt.Sprintf("Case %s changed from %s to %s.", ref, evt.OldValue, evt.NewValue)
	}
}
