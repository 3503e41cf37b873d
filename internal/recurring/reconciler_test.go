package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

func netflixSub(nextExpected string) *model.Subscription {
	sub := &model.Subscription{
		ID:        "sub-1",
		UserID:    "user-1",
		Name:      "Netflix",
		Amount:    500,
		Frequency: model.FrequencyMonthly,
		Status:    model.SubscriptionActive,
	}
	if nextExpected != "" {
		sub.NextExpected = day(nextExpected)
	}
	return sub
}

func TestFindPaymentInExpectedWindow(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("2024-03-10")
	txn := expenseOn("t1", "2024-03-14", 500, "NETFLIX")

	// now far from the charge so only the expected window can admit it
	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-05-01"))
	require.NotNil(t, match)
	assert.Equal(t, "t1", match.Transaction.ID)
	assert.Equal(t, day("2024-03-14"), match.LastCharged)
	assert.Equal(t, day("2024-04-14"), match.NextExpected)
}

func TestFindPaymentOutsideBothWindows(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("2024-03-10")
	// 6 days past the expected date, and months before now
	txn := expenseOn("t1", "2024-03-16", 500, "NETFLIX")

	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-06-01"))
	assert.Nil(t, match)
}

func TestFindPaymentRecencyWindowRecoversStaleSchedule(t *testing.T) {
	m := NewMatcher(containsMatch)
	// nextExpected went stale months ago
	sub := netflixSub("2024-01-01")
	txn := expenseOn("t1", "2024-05-28", 500, "NETFLIX")

	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-06-01"))
	require.NotNil(t, match)
	assert.Equal(t, day("2024-05-28"), match.LastCharged)
}

func TestFindPaymentIgnoresFutureTransaction(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("")
	txn := expenseOn("t1", "2024-06-03", 500, "NETFLIX")

	// charge is dated after now: not recent, and no expected window to admit it
	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-06-01"))
	assert.Nil(t, match)
}

func TestFindPaymentAmountTolerance(t *testing.T) {
	m := NewMatcher(containsMatch)
	now := day("2024-06-01")

	cases := []struct {
		name     string
		expected float64
		amount   float64
		want     bool
	}{
		{"within tolerance", 500, 599, true},
		{"at the 20 percent boundary", 500, 600, true},
		{"over tolerance", 500, 610, false},
		{"zero expected disables the check", 0, 9999, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := netflixSub("2024-05-28")
			sub.Amount = tc.expected
			txn := expenseOn("t1", "2024-05-28", tc.amount, "NETFLIX")

			match := m.FindPayment(sub, []model.Transaction{txn}, now)
			if tc.want {
				assert.NotNil(t, match)
			} else {
				assert.Nil(t, match)
			}
		})
	}
}

func TestFindPaymentSkipsAlreadyRecordedTransaction(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("2024-05-28")
	sub.PaymentHistory = []model.PaymentRecord{
		{TransactionID: "t1", Date: day("2024-05-28"), Amount: 500},
	}
	txn := expenseOn("t1", "2024-05-28", 500, "NETFLIX")

	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-06-01"))
	assert.Nil(t, match)
}

func TestFindPaymentFirstMatchWins(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("2024-05-28")

	txns := []model.Transaction{
		expenseOn("t1", "2024-05-27", 500, "NETFLIX"),
		expenseOn("t2", "2024-05-29", 500, "NETFLIX"),
	}
	match := m.FindPayment(sub, txns, day("2024-06-01"))
	require.NotNil(t, match)
	assert.Equal(t, "t1", match.Transaction.ID)
}

func TestFindPaymentMatchesOnMerchantPattern(t *testing.T) {
	m := NewMatcher(containsMatch)
	sub := netflixSub("2024-05-28")
	sub.Name = "My streaming plan"
	sub.MerchantPattern = "netflix"
	txn := expenseOn("t1", "2024-05-28", 500, "NETFLIX ENTERTAINMENT MUMBAI")

	match := m.FindPayment(sub, []model.Transaction{txn}, day("2024-06-01"))
	assert.NotNil(t, match)
}

func TestFindPaymentScheduleAdvance(t *testing.T) {
	m := NewMatcher(containsMatch)
	now := day("2024-06-01")
	txn := expenseOn("t1", "2024-05-28", 500, "NETFLIX")

	cases := []struct {
		frequency model.Frequency
		next      string
	}{
		{model.FrequencyWeekly, "2024-06-04"},
		{model.FrequencyMonthly, "2024-06-28"},
		{model.FrequencyYearly, "2025-05-28"},
		// Quarterly has no reconciliation advance rule: the date passes
		// through unchanged.
		{model.FrequencyQuarterly, "2024-05-28"},
	}
	for _, tc := range cases {
		t.Run(string(tc.frequency), func(t *testing.T) {
			sub := netflixSub("2024-05-28")
			sub.Frequency = tc.frequency

			match := m.FindPayment(sub, []model.Transaction{txn}, now)
			require.NotNil(t, match)
			assert.Equal(t, day(tc.next), match.NextExpected)
		})
	}
}
