package player

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// OfflineUUID derives the UUID v3 vanilla servers assign in offline mode:
// MD5 of "OfflinePlayer:<username>" with version and variant bits set.
func OfflineUUID(username string) uuid.UUID {
	h := md5.Sum([]byte("OfflinePlayer:" + username))
	h[6] = (h[6] & 0x0f) | 0x30
	h[8] = (h[8] & 0x3f) | 0x80
	return uuid.UUID(h)
}
