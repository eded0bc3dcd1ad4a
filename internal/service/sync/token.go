package sync

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Token is the vendor's incremental cursor: MMyyyy$ID, a month/year
// prefix plus a monotonically increasing sequence id. Ordering compares
// year, then month, then sequence, so a token never sorts backwards
// across a month boundary.
type Token struct {
	Month time.Month
	Year  int
	Seq   int64
}

func ParseToken(s string) (Token, error) {
	prefix, seqStr, ok := strings.Cut(s, "$")
	if !ok || len(prefix) != 6 {
		return Token{}, errors.Errorf("malformed cursor token %q", s)
	}

	month, err := strconv.Atoi(prefix[:2])
	if err != nil || month < 1 || month > 12 {
		return Token{}, errors.Errorf("malformed cursor token month %q", s)
	}
	year, err := strconv.Atoi(prefix[2:])
	if err != nil {
		return Token{}, errors.Errorf("malformed cursor token year %q", s)
	}
	seq, err := strconv.ParseInt(seqStr, 10, 64)
	if err != nil || seq < 0 {
		return Token{}, errors.Errorf("malformed cursor token sequence %q", s)
	}

	return Token{Month: time.Month(month), Year: year, Seq: seq}, nil
}

func (t Token) String() string {
	return time.Date(t.Year, t.Month, 1, 0, 0, 0, 0, time.UTC).Format("012006") + "$" + strconv.FormatInt(t.Seq, 10)
}

// Less orders tokens by (year, month, seq).
func (t Token) Less(o Token) bool {
	if t.Year != o.Year {
		return t.Year < o.Year
	}
	if t.Month != o.Month {
		return t.Month < o.Month
	}
	return t.Seq < o.Seq
}

// BootstrapToken synthesizes the initial cursor for a stream that has
// never synced: the current month with sequence zero.
func BootstrapToken(now time.Time) Token {
	return Token{Month: now.Month(), Year: now.Year(), Seq: 0}
}

// MaxTokenString returns the greater of two token strings. Unparsable
// candidates never win, so the cursor cannot regress on vendor garbage.
func MaxTokenString(current, candidate string) string {
	cand, err := ParseToken(candidate)
	if err != nil {
		return current
	}
	cur, err := ParseToken(current)
	if err != nil {
		return candidate
	}
	if cur.Less(cand) {
		return candidate
	}
	return current
}
