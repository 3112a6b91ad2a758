package checkpoint

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/valyala/gozstd"
)

// Encode turns each key's entries into a compressed JSON blob
func Encode[T any](data map[string][]T) (map[string][]byte, error) {
	blobs := make(map[string][]byte, len(data))
	for key, entries := range data {
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", key, err)
		}
		blobs[key] = gozstd.Compress(nil, raw)
	}
	return blobs, nil
}

// Decode reverses Encode. A corrupt blob fails the whole namespace.
func Decode[T any](blobs map[string][]byte) (map[string][]T, error) {
	data := make(map[string][]T, len(blobs))
	for key, blob := range blobs {
		raw, err := gozstd.Decompress(nil, blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %q: %w", key, err)
		}
		var entries []T
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode %q: %w", key, err)
		}
		data[key] = entries
	}
	return data, nil
}
