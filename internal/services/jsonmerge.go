package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func decodeDoc(doc datatypes.JSON) (map[string]interface{}, error) {
	if len(doc) == 0 {
		return map[string]interface{}{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	return m, nil
}

func encodeDoc(m map[string]interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// mergeShallow overlays fields at the top level only: a key present in
// overlay replaces the base value wholesale. This is the per-field
// last-write-wins rule for repeated edits of one entity within a change.
func mergeShallow(base datatypes.JSON, overlay map[string]interface{}) (datatypes.JSON, error) {
	merged, err := decodeDoc(base)
	if err != nil {
		return nil, err
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return encodeDoc(merged)
}

// mergeDeep overlays a pending edit over a live snapshot. The edit wins on
// every conflicting field; nested objects merge recursively, everything else
// replaces. Neither input map is mutated.
func mergeDeep(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		baseMap, baseOK := merged[k].(map[string]interface{})
		overlayMap, overlayOK := v.(map[string]interface{})
		if baseOK && overlayOK {
			merged[k] = mergeDeep(baseMap, overlayMap)
			continue
		}
		merged[k] = v
	}
	return merged
}
