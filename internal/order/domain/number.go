package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber builds "ORD-<last 8 digits of unix millis>-<4 random chars>".
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%08d-%s", now.UnixMilli()%100_000_000, randomString(4))
}

// NewTrackingNumber builds "TRK" followed by 10 random characters.
func NewTrackingNumber() string {
	return "TRK" + randomString(10)
}

func randomString(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b)
}
