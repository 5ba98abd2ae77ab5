package models

import "hash/fnv"

// NumericID derives the legacy numeric identifier from a store-assigned
// document id. It is stable for a given document but not portable across
// stores, since the store assigns the document id.
func NumericID(docID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(docID))
	return int64(h.Sum64())
}
