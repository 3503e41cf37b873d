// Package model defines the persisted document shapes shared by the store,
// the recurring-payment engine and the HTTP API.
package model

import "time"

// TransactionType distinguishes money-in from money-out.
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

// Frequency is a recurring cadence label.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// SubscriptionStatus is the lifecycle state of a tracked subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Transaction is a single bank transaction. Amount is always a magnitude;
// direction is carried by Type.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Date        time.Time       `json:"date"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PaymentRecord is one confirmed charge in a subscription's history.
type PaymentRecord struct {
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transactionId"`
	Auto          bool      `json:"auto"`
	DetectedAt    time.Time `json:"detectedAt"`
}

// Subscription is a tracked recurring obligation (subscription, EMI, bill).
// LastCharged, NextExpected and PaymentHistory are mutated exclusively by the
// payment checker.
type Subscription struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	Name            string             `json:"name"`
	MerchantPattern string             `json:"merchantPattern"`
	Amount          float64            `json:"amount"`
	Frequency       Frequency          `json:"frequency"`
	Status          SubscriptionStatus `json:"status"`
	LastCharged     time.Time          `json:"lastCharged"`
	NextExpected    time.Time          `json:"nextExpected"`
	PaymentHistory  []PaymentRecord    `json:"paymentHistory"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Pattern returns the text used for fuzzy matching against transactions,
// falling back to the display name when no explicit pattern is stored.
func (s *Subscription) Pattern() string {
	if s.MerchantPattern != "" {
		return s.MerchantPattern
	}
	return s.Name
}

// Budget is a per-category spending cap over a named period.
type Budget struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Period    string    `json:"period"` // "monthly" or "yearly"
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notification is an in-app notification row.
type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"isRead"`
	ReferenceID   string    `json:"referenceId"`
	ReferenceType string    `json:"referenceType"`
	CreatedAt     time.Time `json:"createdAt"`
}
