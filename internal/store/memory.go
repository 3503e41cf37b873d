package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

// MemoryStore implements the Store interface with in-memory storage. Used for
// local development and tests.
type MemoryStore struct {
	mu sync.RWMutex

	transactions  map[string]*model.Transaction
	subscriptions map[string]*model.Subscription
	budgets       map[string]*model.Budget
	notifications map[string]*model.Notification
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions:  make(map[string]*model.Transaction),
		subscriptions: make(map[string]*model.Subscription),
		budgets:       make(map[string]*model.Budget),
		notifications: make(map[string]*model.Notification),
	}
}

// paginateIDs applies cursor-based pagination to a slice of IDs.
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string) {
	if pageSize <= 0 {
		pageSize = 100
	}

	sort.Strings(ids)

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			startIdx = len(ids)
			for i, id := range ids {
				if id > cursorID {
					startIdx = i
					break
				}
			}
		}
	}
	ids = ids[startIdx:]

	var nextToken string
	if int32(len(ids)) > pageSize {
		nextToken = EncodePageToken(ids[pageSize-1])
		ids = ids[:pageSize]
	}
	return ids, nextToken
}

func cloneTransaction(t *model.Transaction) *model.Transaction {
	c := *t
	return &c
}

func cloneSubscription(s *model.Subscription) *model.Subscription {
	c := *s
	c.PaymentHistory = append([]model.PaymentRecord(nil), s.PaymentHistory...)
	return &c
}

// Transaction operations

func (m *MemoryStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	m.transactions[txn.ID] = cloneTransaction(txn)
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.transactions[txnID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
	}
	return cloneTransaction(txn), nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[txn.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, ErrNotFound)
	}
	m.transactions[txn.ID] = cloneTransaction(txn)
	return nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.transactions, txnID)
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, txType model.TransactionType, dateFloor *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, txn := range m.transactions {
		if txn.UserID != userID {
			continue
		}
		if txType != "" && txn.Type != txType {
			continue
		}
		if dateFloor != nil && txn.Date.Before(*dateFloor) {
			continue
		}
		ids = append(ids, id)
	}

	ids, nextToken := paginateIDs(ids, pageSize, pageToken)

	txns := make([]*model.Transaction, 0, len(ids))
	for _, id := range ids {
		txns = append(txns, cloneTransaction(m.transactions[id]))
	}
	// Date ascending, matching the Firestore date-floor query order so both
	// duals feed the payment checker candidates in the same sequence.
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns, nextToken, nil
}

// Subscription operations

func (m *MemoryStore) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	m.subscriptions[sub.ID] = cloneSubscription(sub)
	return nil
}

func (m *MemoryStore) GetSubscription(ctx context.Context, subID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subscriptions[subID]
	if !ok {
		return nil, fmt.Errorf("subscription %s: %w", subID, ErrNotFound)
	}
	return cloneSubscription(sub), nil
}

func (m *MemoryStore) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[sub.ID]; !ok {
		return fmt.Errorf("subscription %s: %w", sub.ID, ErrNotFound)
	}
	m.subscriptions[sub.ID] = cloneSubscription(sub)
	return nil
}

func (m *MemoryStore) DeleteSubscription(ctx context.Context, subID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscriptions, subID)
	return nil
}

func (m *MemoryStore) ListSubscriptions(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, sub := range m.subscriptions {
		if sub.UserID != userID {
			continue
		}
		if status != "" && sub.Status != status {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	subs := make([]*model.Subscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, cloneSubscription(m.subscriptions[id]))
	}
	return subs, nil
}

func (m *MemoryStore) RecordSubscriptionPayment(ctx context.Context, subID string, lastCharged, nextExpected time.Time, record model.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[subID]
	if !ok {
		return fmt.Errorf("subscription %s: %w", subID, ErrNotFound)
	}
	sub.LastCharged = lastCharged
	sub.NextExpected = nextExpected
	sub.UpdatedAt = time.Now()
	sub.PaymentHistory = append(sub.PaymentHistory, record)
	return nil
}

// Budget operations

func (m *MemoryStore) CreateBudget(ctx context.Context, budget *model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	c := *budget
	m.budgets[budget.ID] = &c
	return nil
}

func (m *MemoryStore) GetBudget(ctx context.Context, budgetID string) (*model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	budget, ok := m.budgets[budgetID]
	if !ok {
		return nil, fmt.Errorf("budget %s: %w", budgetID, ErrNotFound)
	}
	c := *budget
	return &c, nil
}

func (m *MemoryStore) ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, b := range m.budgets {
		if b.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	budgets := make([]*model.Budget, 0, len(ids))
	for _, id := range ids {
		c := *m.budgets[id]
		budgets = append(budgets, &c)
	}
	return budgets, nil
}

func (m *MemoryStore) DeleteBudget(ctx context.Context, budgetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.budgets, budgetID)
	return nil
}

// Notification operations

func (m *MemoryStore) CreateNotification(ctx context.Context, notification *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	c := *notification
	m.notifications[notification.ID] = &c
	return nil
}

func (m *MemoryStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, pageSize int32, pageToken string) ([]*model.Notification, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		ids = append(ids, id)
	}

	ids, nextToken := paginateIDs(ids, pageSize, pageToken)

	notifications := make([]*model.Notification, 0, len(ids))
	for _, id := range ids {
		c := *m.notifications[id]
		notifications = append(notifications, &c)
	}
	return notifications, nextToken, nil
}

func (m *MemoryStore) MarkNotificationRead(ctx context.Context, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[notificationID]
	if !ok {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	n.IsRead = true
	return nil
}
