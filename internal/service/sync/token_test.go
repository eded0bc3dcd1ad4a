package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	tok, err := ParseToken("062025$3721")
	require.NoError(t, err)
	assert.Equal(t, time.June, tok.Month)
	assert.Equal(t, 2025, tok.Year)
	assert.Equal(t, int64(3721), tok.Seq)
	assert.Equal(t, "062025$3721", tok.String())
}

func TestParseTokenMalformed(t *testing.T) {
	for _, s := range []string{"", "062025", "62025$1", "132025$1", "06x025$1", "062025$", "062025$-4", "062025$abc"} {
		_, err := ParseToken(s)
		assert.Error(t, err, "token %q", s)
	}
}

func TestTokenLessMonthBoundary(t *testing.T) {
	// A new month resets the vendor sequence; the month/year prefix must
	// dominate the comparison.
	june := Token{Month: time.June, Year: 2025, Seq: 9999}
	july := Token{Month: time.July, Year: 2025, Seq: 1}

	assert.True(t, june.Less(july))
	assert.False(t, july.Less(june))

	dec := Token{Month: time.December, Year: 2024, Seq: 50000}
	jan := Token{Month: time.January, Year: 2025, Seq: 1}
	assert.True(t, dec.Less(jan))

	a := Token{Month: time.June, Year: 2025, Seq: 10}
	b := Token{Month: time.June, Year: 2025, Seq: 11}
	assert.True(t, a.Less(b))
	assert.False(t, a.Less(a))
}

func TestBootstrapToken(t *testing.T) {
	now := time.Date(2025, 6, 19, 12, 0, 0, 0, time.UTC)
	tok := BootstrapToken(now)
	assert.Equal(t, "062025$0", tok.String())
}

func TestMaxTokenString(t *testing.T) {
	assert.Equal(t, "072025$1", MaxTokenString("062025$9999", "072025$1"))
	assert.Equal(t, "062025$9999", MaxTokenString("062025$9999", "062025$12"))
	assert.Equal(t, "062025$9999", MaxTokenString("062025$9999", "garbage"))
	assert.Equal(t, "062025$9999", MaxTokenString("062025$9999", ""))
	assert.Equal(t, "062025$12", MaxTokenString("broken", "062025$12"))
}
