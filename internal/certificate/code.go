package certificate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// codeBytes yields 16 hex characters. The code is the sole public
// verification token, so it must come from a cryptographically secure
// source.
const codeBytes = 8

func generateCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate certificate code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
