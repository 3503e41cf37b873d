package recurring

import (
	"math"
	"strings"
	"time"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

// Candidate window policy. A transaction is considered for a subscription if
// it lands near the expected charge date OR within the recency window; the
// latter recovers subscriptions whose nextExpected went stale after missed
// runs.
const (
	// ExpectedWindowDays is the half-width of the window around nextExpected.
	ExpectedWindowDays = 5
	// RecencyWindowDays is how far back from "now" the staleness-recovery
	// window reaches.
	RecencyWindowDays = 10
	// AmountTolerance is the relative deviation from the expected amount
	// above which a candidate is rejected. Strictly-over is rejected;
	// exactly-at passes.
	AmountTolerance = 0.20
)

// PaymentMatch is a confirmed charge for a subscription: the transaction that
// matched and the advanced schedule derived from it.
type PaymentMatch struct {
	Transaction  model.Transaction
	LastCharged  time.Time
	NextExpected time.Time
}

// Matcher scans recent transactions for charges that settle a tracked
// subscription's expected payment.
type Matcher struct {
	match MatchFunc
}

// NewMatcher wires a payment matcher to its fuzzy-match oracle.
func NewMatcher(match MatchFunc) *Matcher {
	return &Matcher{match: match}
}

// FindPayment returns the first transaction that settles sub's expected
// charge, or nil when none qualifies. First-match-wins in the order supplied;
// no scoring among multiple candidates. Transactions already present in the
// subscription's payment history are never matched twice.
func (m *Matcher) FindPayment(sub *model.Subscription, transactions []model.Transaction, now time.Time) *PaymentMatch {
	recorded := make(map[string]bool, len(sub.PaymentHistory))
	for _, p := range sub.PaymentHistory {
		if p.TransactionID != "" {
			recorded[p.TransactionID] = true
		}
	}

	pattern := sub.Pattern()
	for _, t := range transactions {
		if recorded[t.ID] {
			continue
		}
		txDay := truncateDay(t.Date)
		if !inExpectedWindow(txDay, truncateDay(sub.NextExpected)) && !inRecencyWindow(txDay, now) {
			continue
		}
		if !m.match(t.Merchant+" "+t.Description, pattern) {
			continue
		}
		if !withinAmountTolerance(t.Amount, sub.Amount) {
			continue
		}
		return &PaymentMatch{
			Transaction:  t,
			LastCharged:  txDay,
			NextExpected: advanceAfterCharge(txDay, sub.Frequency),
		}
	}
	return nil
}

// inExpectedWindow reports whether a charge date is within ±ExpectedWindowDays
// of the subscription's expected date.
func inExpectedWindow(date, expected time.Time) bool {
	if expected.IsZero() {
		return false
	}
	return math.Abs(daysBetween(expected, date)) <= ExpectedWindowDays
}

// inRecencyWindow reports whether a charge happened within the last
// RecencyWindowDays before now.
func inRecencyWindow(date, now time.Time) bool {
	age := daysBetween(date, truncateDay(now))
	return age >= 0 && age <= RecencyWindowDays
}

// withinAmountTolerance checks the 20% band around the expected amount. A
// non-positive expected amount disables the check entirely.
func withinAmountTolerance(amount, expected float64) bool {
	if expected <= 0 {
		return true
	}
	deviation := math.Abs(math.Abs(amount)-expected) / expected
	return deviation <= AmountTolerance
}

// advanceAfterCharge moves the schedule forward from a confirmed charge date.
// Unknown cadences pass the date through unchanged rather than erroring.
func advanceAfterCharge(charged time.Time, f model.Frequency) time.Time {
	switch f {
	case model.FrequencyWeekly:
		return charged.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return charged.AddDate(0, 1, 0)
	case model.FrequencyYearly:
		return charged.AddDate(1, 0, 0)
	default:
		return charged
	}
}

// MerchantLabel is the display text reported for a matched transaction:
// merchant when present, description otherwise.
func MerchantLabel(t model.Transaction) string {
	if strings.TrimSpace(t.Merchant) != "" {
		return t.Merchant
	}
	return t.Description
}
