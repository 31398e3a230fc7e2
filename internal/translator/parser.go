package translator

import (
	"encoding/json"
	"strings"
)

// bulkItem is one element of the structured array the endpoint is asked
// to reply with. Field name matching is case-insensitive per
// encoding/json, so "Index"/"TRANSLATED" variants decode fine.
type bulkItem struct {
	Index      int    `json:"index"`
	Translated string `json:"translated"`
}

// parseBulkReply recovers the per-item translations from a raw reply.
//
// The reply is expected to contain a JSON array of {index, translated}
// objects somewhere inside it, possibly surrounded by prose. The array
// is located by the first '[' and the last ']'; the bounded substring
// is then decoded strictly. Indices are 1-based positions within the
// chunk; a duplicate index keeps its last occurrence and a missing one
// yields an empty string, so a successful parse always produces exactly
// expectedCount entries.
//
// ok is false when no decodable array is present. The function never
// returns a short list and never panics.
func parseBulkReply(raw string, expectedCount int) ([]string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var items []bulkItem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, false
	}

	byIndex := make(map[int]string, len(items))
	for _, item := range items {
		byIndex[item.Index] = item.Translated
	}

	ret := make([]string, expectedCount)
	for i := 1; i <= expectedCount; i++ {
		ret[i-1] = byIndex[i]
	}
	return ret, true
}
