// Package normalize repairs the untrusted candidate produced by the model:
// Chilean tax IDs, loosely typed values and the two invoice dates.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinRUTBody is the smallest numeric body accepted for a RUT.
const MinRUTBody = 1_000_000

var (
	rutPattern  = regexp.MustCompile(`^(\d{7,8})([0-9K])$`)
	rutStripper = strings.NewReplacer(".", "", "-", "", " ", "")

	ErrEmptyRUT = errors.New("empty tax id")
)

// NormalizeRUT canonicalizes a RUT to the "12.345.678-5" form. Dots, hyphens
// and spaces are ignored on input and the check character is upper-cased.
// The check digit is not verified against the body.
func NormalizeRUT(raw string) (string, error) {
	compact := strings.ToUpper(rutStripper.Replace(strings.TrimSpace(raw)))
	if compact == "" {
		return "", ErrEmptyRUT
	}

	m := rutPattern.FindStringSubmatch(compact)
	if m == nil {
		return "", fmt.Errorf("tax id %q: want 7-8 digits followed by a 0-9 or K check character", raw)
	}

	body, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("tax id %q: %w", raw, err)
	}
	if body < MinRUTBody {
		return "", fmt.Errorf("tax id %q: body %d below %d", raw, body, MinRUTBody)
	}

	return groupThousands(strconv.Itoa(body)) + "-" + m[2], nil
}

// groupThousands inserts a "." every three digits from the right.
func groupThousands(digits string) string {
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
