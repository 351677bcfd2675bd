package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateNumber builds a date-prefixed business number such as
// ORD20261019-153045123-4821: UTC date, time down to the millisecond, and a
// 4-digit cryptographic random suffix.
func GenerateNumber(prefix string) string {
	now := time.Now().UTC()

	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("%s%s-%s%03d-%04d", prefix, datePart, timePart, millis, n.Int64())
}
