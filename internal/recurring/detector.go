// Package recurring infers periodic payment obligations (subscriptions, EMIs,
// bills) from unlabeled transaction history and matches live transactions
// against already-tracked subscriptions.
package recurring

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

// ErrEmptyName is returned when a detection is requested without a merchant
// name to search for.
var ErrEmptyName = errors.New("merchant name is required")

// MatchFunc decides whether haystack text plausibly refers to needle.
type MatchFunc func(haystack, needle string) bool

// CleanFunc strips bank-statement noise from raw merchant text.
type CleanFunc func(raw string) string

// Confidence weighting. These are calibrated heuristics, not probabilities;
// tune here, nowhere else.
const (
	singleMatchConfidence = 0.30

	occurrenceWeight = 0.3
	intervalWeight   = 0.4
	amountWeight     = 0.3

	// occurrenceSaturation is the match count at which the occurrence score
	// reaches 1.0.
	occurrenceSaturation = 5

	// amountVarianceCeiling zeroes the amount score once the coefficient of
	// variation reaches this many percent.
	amountVarianceCeiling = 50.0

	// maxMatchSummaries caps the per-detection match list returned for display.
	maxMatchSummaries = 5
)

// MatchSummary is one historical transaction that matched the searched name,
// shaped for display.
type MatchSummary struct {
	TransactionID string    `json:"transactionId"`
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	Merchant      string    `json:"merchant"`
	Description   string    `json:"description"`
}

// Suggestion is a computed, unpersisted guess at a recurring pattern.
type Suggestion struct {
	Amount          float64         `json:"amount"`
	LastCharged     time.Time       `json:"lastCharged"`
	Frequency       model.Frequency `json:"frequency"`
	NextExpected    time.Time       `json:"nextExpected"`
	Confidence      float64         `json:"confidence"`
	MatchedMerchant string          `json:"matchedMerchant"`
}

// DetectionResult is the full detector output. Suggestion is nil when nothing
// matched; that is a valid empty result, not an error.
type DetectionResult struct {
	Matches    []MatchSummary `json:"matches"`
	Suggestion *Suggestion    `json:"suggestion"`
}

// Detector infers a recurring profile from a merchant-name search over
// historical expenses. It owns no text logic beyond calling its oracles.
type Detector struct {
	match MatchFunc
	clean CleanFunc
}

// NewDetector wires a detector to its fuzzy-match and text-cleanup oracles.
func NewDetector(match MatchFunc, clean CleanFunc) *Detector {
	return &Detector{match: match, clean: clean}
}

// Detect searches transactions (already filtered to expenses within the
// detection lookback window) for charges matching name and derives a
// suggested recurring profile. Read-only: a pure function of its inputs and
// the oracles.
func (d *Detector) Detect(name string, transactions []model.Transaction) (DetectionResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DetectionResult{}, ErrEmptyName
	}

	var matched []model.Transaction
	for _, t := range transactions {
		if d.match(t.Merchant+" "+t.Description, name) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return DetectionResult{Matches: []MatchSummary{}}, nil
	}

	// Most recent first for the display summary.
	recent := make([]model.Transaction, len(matched))
	copy(recent, matched)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	summaries := make([]MatchSummary, 0, maxMatchSummaries)
	for _, t := range recent {
		if len(summaries) == maxMatchSummaries {
			break
		}
		summaries = append(summaries, MatchSummary{
			TransactionID: t.ID,
			Date:          truncateDay(t.Date),
			Amount:        math.Abs(t.Amount),
			Merchant:      t.Merchant,
			Description:   t.Description,
		})
	}

	// Oldest first for interval analysis. Stable sort: ties keep source order.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})

	latest := matched[len(matched)-1]
	lastCharged := truncateDay(latest.Date)
	merchantText := latest.Merchant
	if strings.TrimSpace(merchantText) == "" {
		merchantText = latest.Description
	}
	matchedMerchant := d.clean(merchantText)

	if len(matched) == 1 {
		// One sighting is not an interval. Assume monthly and flag the guess
		// with a fixed low confidence.
		return DetectionResult{
			Matches: summaries,
			Suggestion: &Suggestion{
				Amount:          math.Abs(latest.Amount),
				LastCharged:     lastCharged,
				Frequency:       model.FrequencyMonthly,
				NextExpected:    advanceCalendar(lastCharged, model.FrequencyMonthly),
				Confidence:      singleMatchConfidence,
				MatchedMerchant: matchedMerchant,
			},
		}, nil
	}

	gaps := make([]float64, 0, len(matched)-1)
	for i := 1; i < len(matched); i++ {
		gaps = append(gaps, daysBetween(truncateDay(matched[i-1].Date), truncateDay(matched[i].Date)))
	}
	avgGap := mean(gaps)

	band, classified := classifyInterval(avgGap)
	frequency := model.FrequencyMonthly
	idealDays := float64(defaultAdvanceDays)
	nextExpected := advanceCalendar(lastCharged, model.FrequencyMonthly)
	if classified {
		idealDays = band.AdvanceDays
		nextExpected = advanceCalendar(lastCharged, band.Frequency)
		frequency = band.Frequency
		if frequency == model.FrequencyQuarterly {
			// Quarterly gaps advance the schedule three months but the
			// suggestion itself is labeled monthly for the UI.
			frequency = model.FrequencyMonthly
		}
	}

	intervalScore := math.Max(0, 1-meanAbsDeviation(gaps, idealDays)/(idealDays*0.5))

	amounts := make([]float64, len(matched))
	for i, t := range matched {
		amounts[i] = math.Abs(t.Amount)
	}
	avgAmount := mean(amounts)
	variancePct := 0.0
	if avgAmount > 0 {
		variancePct = meanAbsDeviation(amounts, avgAmount) / avgAmount * 100
	}
	amountScore := math.Max(0, 1-variancePct/amountVarianceCeiling)

	occurrenceScore := math.Min(1, float64(len(matched)-1)/float64(occurrenceSaturation-1))
	confidence := round2(occurrenceWeight*occurrenceScore + intervalWeight*intervalScore + amountWeight*amountScore)

	return DetectionResult{
		Matches: summaries,
		Suggestion: &Suggestion{
			Amount:          math.Round(avgAmount),
			LastCharged:     lastCharged,
			Frequency:       frequency,
			NextExpected:    nextExpected,
			Confidence:      confidence,
			MatchedMerchant: matchedMerchant,
		},
	}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAbsDeviation(values []float64, target float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Abs(v - target)
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
