// Package roomcode generates the shareable 6-character codes used to join a
// family.
package roomcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Length of every generated code.
	Length = 6

	maxAttempts = 10
)

// ExistsFunc reports whether a candidate code is already taken by an active
// family.
type ExistsFunc func(code string) (bool, error)

// Generate returns a code the exists check reported as free at the moment it
// ran. Collisions are retried up to maxAttempts times; with a 36^6
// keyspace, exhausting them means something is badly wrong and an error is
// returned.
func Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	var code string

	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := random()
		if err != nil {
			return err
		}
		taken, err := exists(candidate)
		if err != nil {
			return err
		}
		if taken {
			return retry.RetryableError(fmt.Errorf("room code %s already in use", candidate))
		}
		code = candidate
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	return code, nil
}

func random() (string, error) {
	b := make([]byte, Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random index: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
