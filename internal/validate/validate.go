package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[\p{L}0-9 _'\-.,]{1,50}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.@+-]{3,32}$`)
	reLetter   = regexp.MustCompile(`^[A-Za-z]$`)
)

const (
	MaxQty     = 50
	MaxTitle   = 200
	MaxComment = 2000
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Int parses a base-10 integer. Out of range input saturates at the int
// bounds instead of failing, so it still clamps toward the right end.
func Int(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && ne.Err == strconv.ErrRange {
			return n, true
		}
		return 0, false
	}
	return n, true
}

// Qty never fails: anything unparseable or below one is 1.
func Qty(s string) int {
	n, ok := Int(s)
	if !ok {
		return 1
	}
	return ClampQty(n)
}

func ClampQty(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQty {
		return MaxQty
	} // clamp to avoid abuse
	return n
}

// Rating parses a review rating and clamps it into [1,5]. Unparseable input
// falls back to 5.
func Rating(s string) int {
	n, ok := Int(s)
	if !ok {
		return 5
	}
	return ClampRating(n)
}

func ClampRating(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

// Comment trims and requires non-blank text.
func Comment(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxComment {
		return "", false
	}
	return s, true
}

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Title(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= MaxTitle
}

// Price accepts a non-negative amount with at most two decimal places.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || d.Exponent() < -2 {
		return decimal.Zero, false
	}
	if d.GreaterThanOrEqual(decimal.New(1, 8)) {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Password enforces a simple length window.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 72
}

// Letter validates the farmer directory's initial filter.
func Letter(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reLetter.MatchString(s)
}

// NextPath only allows local absolute paths as post-login targets.
func NextPath(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.ContainsAny(s, "\\\r\n") {
		return "", false
	}
	if strings.Contains(s, "..") {
		return "", false
	}
	return s, true
}
