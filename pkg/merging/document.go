package merging

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
)

// EachEntry walks the top-level entries of a merged document in document
// order, calling fn with each agency name and its decoded source bundle.
// Entries whose value is not a JSON object are skipped and counted.
func EachEntry(merged []byte, fn func(name string, bundle map[string]any)) (skipped int, err error) {
	err = jsonparser.ObjectEach(merged, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		// key may alias a reused buffer
		name := string(key)

		if dataType != jsonparser.Object {
			skipped++
			return nil
		}

		var bundle map[string]any
		if err := json.Unmarshal(value, &bundle); err != nil {
			skipped++
			return nil
		}

		fn(name, bundle)
		return nil
	})
	if err != nil {
		return skipped, fmt.Errorf("merged document is not a JSON object: %w", err)
	}
	return skipped, nil
}

// decodeWikidata decodes the wikidata document into a name keyed lookup.
func decodeWikidata(wd []byte) (map[string]any, error) {
	if len(wd) == 0 {
		return map[string]any{}, nil
	}
	var lookup map[string]any
	if err := json.Unmarshal(wd, &lookup); err != nil {
		return map[string]any{}, fmt.Errorf("wikidata document is not a JSON object: %w", err)
	}
	if lookup == nil {
		lookup = map[string]any{}
	}
	return lookup, nil
}
