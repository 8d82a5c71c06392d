package util

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentKey returns a namespaced key derived from the bytes of a payload.
// Equal payloads map to equal keys; the cache itself never deduplicates.
func ContentKey(prefix string, data []byte) string {
	sum := xxhash.Sum64(data)
	return prefix + ":" + strconv.FormatUint(sum, 16) + ":" + strconv.Itoa(len(data))
}

// NamespacedKey isolates caller keys of different slabs sharing one index.
func NamespacedKey(ns, key string) string {
	return "mesh:" + ns + ":" + key
}
