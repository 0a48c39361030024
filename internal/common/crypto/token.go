package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
)

// GenerateRefreshToken returns the plaintext refresh token: hex of 64 random
// bytes. Only the SHA-256 digest of this value is ever persisted.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, constants.RefreshTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
