package cache

import (
	"strconv"
	"time"

	"github.com/minio/highwayhash"
)

// key is the fixed highwayhash key; digests only need to be stable within a process
var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Cache defines the interface for in-process memoization
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Fingerprint returns the highwayhash-64 digest of data
func Fingerprint(data []byte) uint64 {
	return highwayhash.Sum64(data, key)
}

// Key generates a cache key from a namespace and a location
func Key(namespace, location string) string {
	return "docparity:v1:" + namespace + ":" + strconv.FormatUint(Fingerprint([]byte(location)), 16)
}
