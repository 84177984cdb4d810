// Package checksum fingerprints analysis inputs. Spec versions and archived
// runs are identified by content, not by modification time.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short truncates a digest to a 12-character prefix, used as a fallback
// version label for documents without frontmatter.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
