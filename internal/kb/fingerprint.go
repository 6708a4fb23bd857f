// File path: internal/kb/fingerprint.go
package kb

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeFingerprint derives a stable hash of an entry's identity and text.
// Embeddings are excluded so the same activity fingerprints identically
// whichever backend indexed it.
func ComputeFingerprint(entry Entry) string {
	hasher := sha256.New()
	for _, part := range []string{entry.SourceProcess, entry.ActivityID, string(entry.Kind), entry.Name, entry.Text} {
		_, _ = hasher.Write([]byte(part))
		_, _ = hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
