package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const accessTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateAccessToken returns a random alphanumeric token of the given length
func GenerateAccessToken(length int) (string, error) {
	limit := big.NewInt(int64(len(accessTokenAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		buf[i] = accessTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
