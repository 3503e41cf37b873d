package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/omsharma/finbuddy/backend/internal/model"
	"github.com/omsharma/finbuddy/backend/internal/store"
)

// Notification types written by the triggers.
const (
	notificationPaymentDetected = "payment_detected"
	notificationUpcomingBill    = "upcoming_bill"
	notificationBudgetExceeded  = "budget_exceeded"
)

// NotificationTrigger creates notifications for financial events. Trigger
// failures are logged and swallowed; a missed notification never fails the
// operation that caused it.
type NotificationTrigger struct {
	store store.Store
}

func NewNotificationTrigger(store store.Store) *NotificationTrigger {
	return &NotificationTrigger{store: store}
}

// PaymentDetected records that the payment checker matched a transaction to a
// subscription.
func (t *NotificationTrigger) PaymentDetected(ctx context.Context, sub *model.Subscription, txn model.Transaction) {
	notification := &model.Notification{
		ID:            uuid.New().String(),
		UserID:        sub.UserID,
		Type:          notificationPaymentDetected,
		Title:         fmt.Sprintf("Payment Detected: %s", sub.Name),
		Message:       fmt.Sprintf("₹%.2f charged for %s on %s.", txn.Amount, sub.Name, txn.Date.Format("2 Jan 2006")),
		ReferenceID:   sub.ID,
		ReferenceType: "subscription",
		CreatedAt:     time.Now(),
	}

	if err := t.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("[NotificationTrigger] failed to create payment detected notification: %v", err)
	}
}

// UpcomingBill reminds the user about a subscription due within the next few
// days. Deduplication: skipped while an unread reminder for the same
// subscription exists.
func (t *NotificationTrigger) UpcomingBill(ctx context.Context, sub *model.Subscription) {
	exists, err := t.hasUnread(ctx, sub.UserID, notificationUpcomingBill, sub.ID)
	if err != nil {
		log.Printf("[NotificationTrigger] failed to check for existing bill reminder: %v", err)
		return
	}
	if exists {
		return
	}

	notification := &model.Notification{
		ID:            uuid.New().String(),
		UserID:        sub.UserID,
		Type:          notificationUpcomingBill,
		Title:         fmt.Sprintf("Upcoming Bill: %s", sub.Name),
		Message:       fmt.Sprintf("Your %s payment of ₹%.2f is expected on %s.", sub.Name, sub.Amount, sub.NextExpected.Format("2 Jan 2006")),
		ReferenceID:   sub.ID,
		ReferenceType: "subscription",
		CreatedAt:     time.Now(),
	}

	if err := t.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("[NotificationTrigger] failed to create bill reminder notification: %v", err)
	}
}

// BudgetExceeded alerts when period spending crosses the budget cap.
// Deduplication: skipped while an unread alert for the same budget exists.
func (t *NotificationTrigger) BudgetExceeded(ctx context.Context, budget *model.Budget, spent float64) {
	if budget.Amount <= 0 || spent < budget.Amount {
		return
	}

	exists, err := t.hasUnread(ctx, budget.UserID, notificationBudgetExceeded, budget.ID)
	if err != nil {
		log.Printf("[NotificationTrigger] failed to check for existing budget notification: %v", err)
		return
	}
	if exists {
		return
	}

	notification := &model.Notification{
		ID:            uuid.New().String(),
		UserID:        budget.UserID,
		Type:          notificationBudgetExceeded,
		Title:         fmt.Sprintf("Budget Alert: %s", budget.Name),
		Message:       fmt.Sprintf("You've spent ₹%.2f of your ₹%.2f %s budget.", spent, budget.Amount, budget.Name),
		ReferenceID:   budget.ID,
		ReferenceType: "budget",
		CreatedAt:     time.Now(),
	}

	if err := t.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("[NotificationTrigger] failed to create budget exceeded notification: %v", err)
	}
}

// hasUnread reports whether an unread notification of the given type already
// references the entity.
func (t *NotificationTrigger) hasUnread(ctx context.Context, userID, notificationType, referenceID string) (bool, error) {
	pageToken := ""
	for {
		notifications, nextToken, err := t.store.ListNotifications(ctx, userID, true, 100, pageToken)
		if err != nil {
			return false, err
		}
		for _, n := range notifications {
			if n.Type == notificationType && n.ReferenceID == referenceID {
				return true, nil
			}
		}
		if nextToken == "" {
			return false, nil
		}
		pageToken = nextToken
	}
}
