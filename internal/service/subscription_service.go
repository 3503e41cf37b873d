package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omsharma/finbuddy/backend/internal/model"
	"github.com/omsharma/finbuddy/backend/internal/recurring"
)

const (
	// detectionLookbackMonths bounds the expense history handed to the
	// pattern detector.
	detectionLookbackMonths = 18
	// paymentLookbackDays bounds the expense window the payment checker
	// scans.
	paymentLookbackDays = 60
	// checkerPageSize is the listing page size used while draining the
	// transaction window.
	checkerPageSize = 500
	// reminderLeadDays is how far ahead of nextExpected an upcoming-bill
	// reminder fires.
	reminderLeadDays = 3
)

// CheckError captures a per-subscription failure during a payment check run.
type CheckError struct {
	SubscriptionID string `json:"subscriptionId"`
	Message        string `json:"message"`
}

// PaymentCheckSummary reports one payment checker run.
type PaymentCheckSummary struct {
	Checked   int          `json:"checked"`
	Matched   int          `json:"matched"`
	Unmatched int          `json:"unmatched"`
	Errors    []CheckError `json:"errors,omitempty"`
}

// LookupSubscription searches the user's expense history for charges matching
// name and suggests a recurring profile. Computes only; persists nothing.
func (s *FinanceService) LookupSubscription(ctx context.Context, userID, name string) (recurring.DetectionResult, error) {
	if userID == "" {
		return recurring.DetectionResult{}, invalidInputf("userId is required")
	}
	if strings.TrimSpace(name) == "" {
		return recurring.DetectionResult{}, invalidInputf("merchant name is required")
	}

	floor := time.Now().AddDate(0, -detectionLookbackMonths, 0)
	txns, err := s.expensesSince(ctx, userID, floor)
	if err != nil {
		return recurring.DetectionResult{}, err
	}

	result, err := s.detector.Detect(name, txns)
	if err != nil {
		return recurring.DetectionResult{}, invalidInputf("%v", err)
	}
	return result, nil
}

// CreateSubscription validates and stores a subscription, typically from an
// accepted lookup suggestion.
func (s *FinanceService) CreateSubscription(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	if sub.UserID == "" {
		return nil, invalidInputf("userId is required")
	}
	if strings.TrimSpace(sub.Name) == "" {
		return nil, invalidInputf("subscription name is required")
	}
	if sub.Amount <= 0 {
		return nil, invalidInputf("subscription amount must be positive")
	}
	if sub.Frequency == "" {
		sub.Frequency = model.FrequencyMonthly
	}
	switch sub.Frequency {
	case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyQuarterly, model.FrequencyYearly:
	default:
		return nil, invalidInputf("unknown frequency %q", sub.Frequency)
	}
	if sub.Status == "" {
		sub.Status = model.SubscriptionActive
	}

	now := time.Now()
	sub.ID = uuid.New().String()
	if sub.PaymentHistory == nil {
		sub.PaymentHistory = []model.PaymentRecord{}
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, wrapStoreErr("failed to create subscription", err)
	}
	return sub, nil
}

// GetSubscription fetches one subscription, enforcing ownership.
func (s *FinanceService) GetSubscription(ctx context.Context, userID, subID string) (*model.Subscription, error) {
	if subID == "" {
		return nil, invalidInputf("subscription id is required")
	}
	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, wrapStoreErr("failed to get subscription", err)
	}
	if sub.UserID != userID {
		return nil, &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("subscription %s not found", subID)}
	}
	return sub, nil
}

// UpdateSubscription replaces a subscription's user-editable fields. The
// schedule fields and payment history belong to the payment checker and are
// never overwritten here.
func (s *FinanceService) UpdateSubscription(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	existing, err := s.GetSubscription(ctx, sub.UserID, sub.ID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(sub.Name) != "" {
		existing.Name = sub.Name
	}
	if sub.MerchantPattern != "" {
		existing.MerchantPattern = sub.MerchantPattern
	}
	if sub.Amount > 0 {
		existing.Amount = sub.Amount
	}
	if sub.Frequency != "" {
		existing.Frequency = sub.Frequency
	}
	if sub.Status != "" {
		switch sub.Status {
		case model.SubscriptionActive, model.SubscriptionPaused, model.SubscriptionCancelled:
			existing.Status = sub.Status
		default:
			return nil, invalidInputf("unknown status %q", sub.Status)
		}
	}
	existing.UpdatedAt = time.Now()

	if err := s.store.UpdateSubscription(ctx, existing); err != nil {
		return nil, wrapStoreErr("failed to update subscription", err)
	}
	return existing, nil
}

// DeleteSubscription removes a subscription, enforcing ownership.
func (s *FinanceService) DeleteSubscription(ctx context.Context, userID, subID string) error {
	if _, err := s.GetSubscription(ctx, userID, subID); err != nil {
		return err
	}
	if err := s.store.DeleteSubscription(ctx, subID); err != nil {
		return wrapStoreErr("failed to delete subscription", err)
	}
	return nil
}

// ListSubscriptions lists the user's subscriptions, optionally narrowed by
// status.
func (s *FinanceService) ListSubscriptions(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	if userID == "" {
		return nil, invalidInputf("userId is required")
	}
	subs, err := s.store.ListSubscriptions(ctx, userID, status)
	if err != nil {
		return nil, wrapStoreErr("failed to list subscriptions", err)
	}
	return subs, nil
}

// CheckPayments reconciles the user's active subscriptions against recent
// expenses. When subID is set only that subscription is checked; otherwise
// the whole active set. Transactions are read once per run, not once per
// subscription. A store failure on one subscription is recorded and the run
// continues.
func (s *FinanceService) CheckPayments(ctx context.Context, userID, subID string) (*PaymentCheckSummary, error) {
	if userID == "" {
		return nil, invalidInputf("userId is required")
	}

	var subs []*model.Subscription
	if subID != "" {
		sub, err := s.GetSubscription(ctx, userID, subID)
		if err != nil {
			return nil, err
		}
		// Only active subscriptions are reconciled; a paused or cancelled one
		// does not resolve, even when requested by id.
		if sub.Status != model.SubscriptionActive {
			return nil, &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("active subscription %s not found", subID)}
		}
		subs = []*model.Subscription{sub}
	} else {
		var err error
		subs, err = s.store.ListSubscriptions(ctx, userID, model.SubscriptionActive)
		if err != nil {
			return nil, wrapStoreErr("failed to list subscriptions", err)
		}
	}

	now := time.Now()
	floor := now.AddDate(0, 0, -paymentLookbackDays)
	txns, err := s.expensesSince(ctx, userID, floor)
	if err != nil {
		return nil, err
	}

	summary := &PaymentCheckSummary{}
	for _, sub := range subs {
		summary.Checked++

		match := s.matcher.FindPayment(sub, txns, now)
		if match == nil {
			summary.Unmatched++
			s.maybeRemindUpcoming(ctx, sub, now)
			continue
		}

		record := model.PaymentRecord{
			Date:          match.LastCharged,
			Amount:        math.Abs(match.Transaction.Amount),
			TransactionID: match.Transaction.ID,
			Auto:          true,
			DetectedAt:    now,
		}
		if err := s.store.RecordSubscriptionPayment(ctx, sub.ID, match.LastCharged, match.NextExpected, record); err != nil {
			log.Printf("[PaymentChecker] error recording payment for subscription %s (user %s): %v", sub.ID, userID, err)
			summary.Errors = append(summary.Errors, CheckError{SubscriptionID: sub.ID, Message: err.Error()})
			continue
		}

		summary.Matched++
		log.Printf("[PaymentChecker] matched %s to transaction %s (%s, ₹%.2f)",
			sub.Name, match.Transaction.ID, recurring.MerchantLabel(match.Transaction), match.Transaction.Amount)
		s.notify.PaymentDetected(ctx, sub, match.Transaction)
	}

	log.Printf("[PaymentChecker] completed: checked=%d matched=%d unmatched=%d errors=%d",
		summary.Checked, summary.Matched, summary.Unmatched, len(summary.Errors))
	return summary, nil
}

// maybeRemindUpcoming fires an upcoming-bill reminder when an unmatched
// subscription is due within the lead window.
func (s *FinanceService) maybeRemindUpcoming(ctx context.Context, sub *model.Subscription, now time.Time) {
	if sub.NextExpected.IsZero() {
		return
	}
	until := sub.NextExpected.Sub(now)
	if until < 0 || until > reminderLeadDays*24*time.Hour {
		return
	}
	s.notify.UpcomingBill(ctx, sub)
}

// expensesSince drains every expense page from floor onward into one slice.
func (s *FinanceService) expensesSince(ctx context.Context, userID string, floor time.Time) ([]model.Transaction, error) {
	var all []model.Transaction
	pageToken := ""
	for {
		txns, nextToken, err := s.store.ListTransactions(ctx, userID, model.TransactionExpense, &floor, checkerPageSize, pageToken)
		if err != nil {
			return nil, wrapStoreErr("failed to list transactions", err)
		}
		for _, t := range txns {
			all = append(all, *t)
		}
		if nextToken == "" {
			return all, nil
		}
		pageToken = nextToken
	}
}
