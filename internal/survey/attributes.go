package survey

import "regexp"

// attributeKeyPattern matches prefixed attribute keys such as
// "attribute_8", "attribute-8", or "Attribute8".
var attributeKeyPattern = regexp.MustCompile(`(?i)attribute[_-]?(\d+)`)

// NormalizeAttributeKeys converts the operator-configured attribute list
// into the bare names list_participants expects: "attribute_8" becomes "8",
// plain numbers pass through, and custom names (e.g. "nombre_profe") pass
// through unchanged. Empty entries are dropped.
func NormalizeAttributeKeys(keys []string) []string {
	normalized := make([]string, 0, len(keys))

	for _, key := range keys {
		if key == "" {
			continue
		}

		if m := attributeKeyPattern.FindStringSubmatch(key); m != nil {
			normalized = append(normalized, m[1])
			continue
		}

		normalized = append(normalized, key)
	}

	return normalized
}
