package generator

import (
	"crypto/sha256"
	"fmt"
)

// ComputeChecksum computes a SHA256 checksum for the given data
func ComputeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// ContentChecksum returns the checksum of a document's CSV text
func ContentChecksum(text string) string {
	return ComputeChecksum([]byte(text))
}
