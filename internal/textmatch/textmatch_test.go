package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanBankText(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"UPI/NETFLIX ENTERTAINMENT/402935773301", "Netflix Entertainment"},
		{"NEFT-RELIANCE JIO LTD", "Reliance Jio"},
		{"POS SWIGGY*BANGALORE 88441234567", "Swiggy Bangalore"},
		{"  spotify india pvt  ", "Spotify India"},
		{"HDFC EMI 900123456", "Hdfc Emi"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanBankText(tc.raw), "raw=%q", tc.raw)
	}
}

func TestCleanBankTextCapsLength(t *testing.T) {
	raw := "VERYLONGMERCHANTNAME ANOTHERLONGWORD YETANOTHERLONGWORD TRAILING"
	got := CleanBankText(raw)
	assert.LessOrEqual(t, len(got), 50)
}

func TestFuzzyMatchContainment(t *testing.T) {
	assert.True(t, FuzzyMatch("NETFLIX ENTERTAINMENT 4029357733", "netflix"))
	assert.True(t, FuzzyMatch("UPI/NETFLIX/12345678", "Netflix"))
	assert.False(t, FuzzyMatch("SWIGGY BANGALORE", "netflix"))
}

func TestFuzzyMatchTypoTolerance(t *testing.T) {
	// one edit across seven characters is under the ratio cutoff
	assert.True(t, FuzzyMatch("NETFLX SUBSCRIPTION", "netflix"))
	// short tokens never match by edit distance
	assert.False(t, FuzzyMatch("OLA CABS", "uber"))
}

func TestFuzzyMatchMultiTokenNeedle(t *testing.T) {
	assert.True(t, FuzzyMatch("AMAZON PRIME VIDEO 1234567890", "amazon prime"))
	// every needle token has to land; "prime" alone is not "amazon music"
	assert.False(t, FuzzyMatch("AMAZON MUSIC", "amazon prime"))
}

func TestFuzzyMatchEmptyInputs(t *testing.T) {
	assert.False(t, FuzzyMatch("", "netflix"))
	assert.False(t, FuzzyMatch("NETFLIX", ""))
	// noise-only text normalizes to empty
	assert.False(t, FuzzyMatch("123456789", "netflix"))
}
