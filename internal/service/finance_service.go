// Package service implements the application operations behind the HTTP API:
// transaction and budget bookkeeping, subscription detection and the payment
// checker.
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
	"github.com/omsharma/finbuddy/backend/internal/search"
	"github.com/omsharma/finbuddy/backend/internal/store"
)

// TransactionIndex mirrors transactions into a full-text index. Implemented by
// search.AlgoliaClient; nil when search is not configured.
type TransactionIndex interface {
	IndexTransaction(ctx context.Context, txn *model.Transaction) error
	RemoveTransaction(ctx context.Context, txnID string) error
	Search(ctx context.Context, params search.Params) (*search.Response, error)
}

// FinanceService carries the store, the recurring-payment engine and the
// optional search index.
type FinanceService struct {
	store    store.Store
	detector *recurring.Detector
	matcher  *recurring.Matcher
	index    TransactionIndex
	notify   *NotificationTrigger
}

// NewFinanceService wires up a finance service. index may be nil.
func NewFinanceService(st store.Store, detector *recurring.Detector, matcher *recurring.Matcher, index TransactionIndex) *FinanceService {
	return &FinanceService{
		store:    st,
		detector: detector,
		matcher:  matcher,
		index:    index,
		notify:   NewNotificationTrigger(st),
	}
}

// ListTransactionsParams narrows a transaction listing.
type ListTransactionsParams struct {
	Type      model.TransactionType
	DateFloor *time.Time
	PageSize  int32
	PageToken string
}

// CreateTransaction validates and stores a transaction. Amounts are stored as
// magnitudes; direction lives in Type.
func (s *FinanceService) CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if txn.UserID == "" {
		return nil, invalidInputf("userId is required")
	}
	if txn.Amount == 0 {
		return nil, invalidInputf("amount is required")
	}
	if strings.TrimSpace(txn.Merchant) == "" && strings.TrimSpace(txn.Description) == "" {
		return nil, invalidInputf("merchant or description is required")
	}
	if txn.Type == "" {
		txn.Type = model.TransactionExpense
	}
	if txn.Type != model.TransactionExpense && txn.Type != model.TransactionIncome {
		return nil, invalidInputf("unknown transaction type %q", txn.Type)
	}

	now := time.Now()
	if txn.Date.IsZero() {
		txn.Date = now
	}
	txn.ID = uuid.New().String()
	txn.Amount = math.Abs(txn.Amount)
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, wrapStoreErr("failed to create transaction", err)
	}

	s.indexTransaction(ctx, txn)
	if txn.Type == model.TransactionExpense {
		s.checkBudgets(ctx, txn)
	}
	return txn, nil
}

// GetTransaction fetches one transaction, enforcing ownership.
func (s *FinanceService) GetTransaction(ctx context.Context, userID, txnID string) (*model.Transaction, error) {
	if txnID == "" {
		return nil, invalidInputf("transaction id is required")
	}
	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, wrapStoreErr("failed to get transaction", err)
	}
	if txn.UserID != userID {
		return nil, &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("transaction %s not found", txnID)}
	}
	return txn, nil
}

// UpdateTransaction replaces a transaction's mutable fields.
func (s *FinanceService) UpdateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	existing, err := s.GetTransaction(ctx, txn.UserID, txn.ID)
	if err != nil {
		return nil, err
	}

	existing.Date = txn.Date
	existing.Amount = math.Abs(txn.Amount)
	if txn.Type != "" {
		existing.Type = txn.Type
	}
	existing.Merchant = txn.Merchant
	existing.Description = txn.Description
	existing.Category = txn.Category
	existing.UpdatedAt = time.Now()

	if err := s.store.UpdateTransaction(ctx, existing); err != nil {
		return nil, wrapStoreErr("failed to update transaction", err)
	}
	s.indexTransaction(ctx, existing)
	return existing, nil
}

// DeleteTransaction removes a transaction and its index entry.
func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, txnID string) error {
	if _, err := s.GetTransaction(ctx, userID, txnID); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, txnID); err != nil {
		return wrapStoreErr("failed to delete transaction", err)
	}

	if s.index != nil {
		if err := s.index.RemoveTransaction(ctx, txnID); err != nil {
			log.Printf("[FinanceService] failed to remove transaction %s from search index: %v", txnID, err)
		}
	}
	return nil
}

// ListTransactions lists a user's transactions.
func (s *FinanceService) ListTransactions(ctx context.Context, userID string, params ListTransactionsParams) ([]*model.Transaction, string, error) {
	if userID == "" {
		return nil, "", invalidInputf("userId is required")
	}
	txns, nextToken, err := s.store.ListTransactions(ctx, userID, params.Type, params.DateFloor, params.PageSize, params.PageToken)
	if err != nil {
		return nil, "", wrapStoreErr("failed to list transactions", err)
	}
	return txns, nextToken, nil
}

// SearchTransactions runs a full-text query against the search index.
func (s *FinanceService) SearchTransactions(ctx context.Context, params search.Params) (*search.Response, error) {
	if s.index == nil {
		return nil, invalidInputf("search is not configured")
	}
	if params.UserID == "" {
		return nil, invalidInputf("userId is required")
	}
	resp, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, &ServiceError{Code: CodeStoreFailure, Message: "search failed", Cause: err}
	}
	return resp, nil
}

// indexTransaction mirrors a write into the search index. Index failures are
// logged, never surfaced; the store is the source of truth.
func (s *FinanceService) indexTransaction(ctx context.Context, txn *model.Transaction) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTransaction(ctx, txn); err != nil {
		log.Printf("[FinanceService] failed to index transaction %s: %v", txn.ID, err)
	}
}

// Budget operations

// BudgetProgress pairs a budget with spending accumulated in its current
// period.
type BudgetProgress struct {
	Budget *model.Budget `json:"budget"`
	Spent  float64       `json:"spent"`
}

// CreateBudget validates and stores a budget.
func (s *FinanceService) CreateBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	if budget.UserID == "" {
		return nil, invalidInputf("userId is required")
	}
	if strings.TrimSpace(budget.Name) == "" {
		return nil, invalidInputf("budget name is required")
	}
	if budget.Amount <= 0 {
		return nil, invalidInputf("budget amount must be positive")
	}
	if budget.Period == "" {
		budget.Period = "monthly"
	}
	if budget.Period != "monthly" && budget.Period != "yearly" {
		return nil, invalidInputf("unknown budget period %q", budget.Period)
	}

	now := time.Now()
	budget.ID = uuid.New().String()
	budget.CreatedAt = now
	budget.UpdatedAt = now

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, wrapStoreErr("failed to create budget", err)
	}
	return budget, nil
}

// ListBudgets returns the user's budgets with spent-to-date progress for the
// current period.
func (s *FinanceService) ListBudgets(ctx context.Context, userID string) ([]BudgetProgress, error) {
	if userID == "" {
		return nil, invalidInputf("userId is required")
	}
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, wrapStoreErr("failed to list budgets", err)
	}

	progress := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.spentInPeriod(ctx, userID, b.Category, b.Period, time.Now())
		if err != nil {
			return nil, err
		}
		progress = append(progress, BudgetProgress{Budget: b, Spent: spent})
	}
	return progress, nil
}

// DeleteBudget removes a budget, enforcing ownership.
func (s *FinanceService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	if budgetID == "" {
		return invalidInputf("budget id is required")
	}
	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return wrapStoreErr("failed to get budget", err)
	}
	if budget.UserID != userID {
		return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("budget %s not found", budgetID)}
	}
	if err := s.store.DeleteBudget(ctx, budgetID); err != nil {
		return wrapStoreErr("failed to delete budget", err)
	}
	return nil
}

// spentInPeriod sums expense magnitudes for a category since the start of the
// budget's current period. An empty category sums all expenses.
func (s *FinanceService) spentInPeriod(ctx context.Context, userID, category, period string, now time.Time) (float64, error) {
	floor := periodStart(period, now)

	var spent float64
	pageToken := ""
	for {
		txns, nextToken, err := s.store.ListTransactions(ctx, userID, model.TransactionExpense, &floor, 500, pageToken)
		if err != nil {
			return 0, wrapStoreErr("failed to list transactions for budget progress", err)
		}
		for _, t := range txns {
			if category != "" && !strings.EqualFold(t.Category, category) {
				continue
			}
			spent += math.Abs(t.Amount)
		}
		if nextToken == "" {
			return spent, nil
		}
		pageToken = nextToken
	}
}

// periodStart returns the first instant of the budget period containing now.
func periodStart(period string, now time.Time) time.Time {
	now = now.UTC()
	if period == "yearly" {
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// checkBudgets fires budget-exceeded notifications affected by a new expense.
// Budget checks never fail the transaction write.
func (s *FinanceService) checkBudgets(ctx context.Context, txn *model.Transaction) {
	budgets, err := s.store.ListBudgets(ctx, txn.UserID)
	if err != nil {
		log.Printf("[FinanceService] failed to list budgets for threshold check: %v", err)
		return
	}
	for _, b := range budgets {
		if b.Category != "" && !strings.EqualFold(b.Category, txn.Category) {
			continue
		}
		spent, err := s.spentInPeriod(ctx, txn.UserID, b.Category, b.Period, time.Now())
		if err != nil {
			log.Printf("[FinanceService] failed to compute budget progress for %s: %v", b.ID, err)
			continue
		}
		s.notify.BudgetExceeded(ctx, b, spent)
	}
}

// Notification operations

// ListNotifications lists a user's notifications.
func (s *FinanceService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, pageSize int32, pageToken string) ([]*model.Notification, string, error) {
	if userID == "" {
		return nil, "", invalidInputf("userId is required")
	}
	notifications, nextToken, err := s.store.ListNotifications(ctx, userID, unreadOnly, pageSize, pageToken)
	if err != nil {
		return nil, "", wrapStoreErr("failed to list notifications", err)
	}
	return notifications, nextToken, nil
}

// MarkNotificationRead marks one notification as read.
func (s *FinanceService) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return invalidInputf("notification id is required")
	}
	if err := s.store.MarkNotificationRead(ctx, notificationID); err != nil {
		return wrapStoreErr("failed to mark notification read", err)
	}
	return nil
}
