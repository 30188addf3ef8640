package util

import (
	"crypto/md5"
	"encoding/json"

	"github.com/google/uuid"
)

// HashUUID hashes the JSON form of value into a UUID string, or "" if value
// does not marshal.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return ContentKey(raw)
}

// ContentKey hashes the concatenation of parts into a name-based (version 3)
// UUID string. Equal inputs always give equal keys.
func ContentKey(parts ...[]byte) string {
	hasher := md5.New()
	for _, p := range parts {
		hasher.Write(p)
	}
	hash := hasher.Sum(nil)
	hash[6] = (hash[6] & 0x0f) | 0x30
	hash[8] = (hash[8] & 0x3f) | 0x80
	id, err := uuid.FromBytes(hash[:16])
	if err != nil {
		return ""
	}
	return id.String()
}

// TextureKey is the cache key for pixels encoded with the given settings:
// the HashUUID of the settings followed by the pixel bytes.
func TextureKey(settings any, pixels []byte) string {
	sk := HashUUID(settings)
	if sk == "" {
		return ""
	}
	return ContentKey([]byte(sk), pixels)
}
