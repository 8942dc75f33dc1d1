package survey

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// Analysis is the outcome of decoding one participant's exported answers.
type Analysis struct {
	// Completed is set from the participant's uses-left counter, never
	// from whether the export decoded.
	Completed bool
	// Completion is the answered/total percentage, rounded, in [0,100].
	Completion int
	// Responses maps substantive answer fields to their values.
	Responses map[string]string
	// ResponseID is the remote response identifier, when present.
	ResponseID string
	// Diagnostic describes why an export yielded nothing, for logs.
	Diagnostic string
}

// technicalFields are the export columns that carry response metadata
// rather than answers. The remote side localizes column headings, so the
// Spanish spellings appear alongside the canonical ones.
var technicalFields = map[string]struct{}{
	"id":            {},
	"token":         {},
	"submitdate":    {},
	"lastpage":      {},
	"startlanguage": {},
	"seed":          {},
	"startdate":     {},
	"datestamp":     {},
	"ipaddr":        {},
	"refurl":        {},

	"ID de respuesta":              {},
	"Fecha de envío":               {},
	"Última página":                {},
	"Lenguaje inicial":             {},
	"Semilla":                      {},
	"Código de acceso":             {},
	"Fecha de inicio":              {},
	"Fecha de la últ.. ":           {},
	"Dirección IP":                 {},
	"Fecha de la última respuesta": {},
	"Fecha de la última página":    {},
}

// subQuestionPattern matches the parenthesized sub-question code the export
// appends to duplicated multi-part columns, e.g. "(12X34X56SQ001)".
var subQuestionPattern = regexp.MustCompile(`\(\d+X\d+X\d+.*?\)`)

// AnalyzeExport decodes an export_responses_by_token payload and computes
// the completion figures for its first response record. Any decode failure
// yields a zero analysis with a diagnostic; the caller decides whether and
// how to surface it.
func AnalyzeExport(raw json.RawMessage) Analysis {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil || encoded == "" {
		return Analysis{Diagnostic: "export payload is not a base64 string"}
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(decoded) == 0 {
		return Analysis{Diagnostic: "export payload is not valid base64"}
	}

	record, ok := firstResponseRecord(decoded)
	if !ok {
		return Analysis{Diagnostic: "export payload carries no response records"}
	}

	analysis := Analysis{Responses: map[string]string{}}

	if s, ok := propertyString(record["id"]); ok && s != "" {
		analysis.ResponseID = s
	} else if s, ok := propertyString(record["response_id"]); ok {
		analysis.ResponseID = s
	}

	total := 0
	answered := 0

	for field, value := range record {
		if _, technical := technicalFields[field]; technical {
			continue
		}

		// Multi-part questions appear twice, once aggregated and once per
		// coded sub-question; the coded duplicates are skipped.
		if subQuestionPattern.MatchString(field) {
			continue
		}

		if value == nil {
			continue
		}

		total++

		if s, ok := propertyString(value); ok {
			if s != "" {
				answered++
				analysis.Responses[field] = s
			}
			continue
		}

		// Structured values (nested arrays) count as answered but are
		// not renderable on the dashboard.
		answered++
	}

	if total > 0 {
		analysis.Completion = int(math.Round(100 * float64(answered) / float64(total)))
	}

	if len(analysis.Responses) == 0 {
		analysis.Responses = nil
	}

	return analysis
}

// firstResponseRecord parses the decoded export JSON and returns its first
// record. The records arrive either under a {"responses": ...} envelope or
// bare, and the collection itself is either an array or a mapping keyed by
// response id.
func firstResponseRecord(decoded []byte) (map[string]any, bool) {
	var parsed any
	if err := json.Unmarshal(decoded, &parsed); err != nil {
		return nil, false
	}

	if envelope, ok := parsed.(map[string]any); ok {
		if inner, found := envelope["responses"]; found {
			parsed = inner
		}
	}

	var record map[string]any

	switch collection := parsed.(type) {
	case []any:
		if len(collection) == 0 {
			return nil, false
		}
		record, _ = collection[0].(map[string]any)
	case map[string]any:
		record, _ = firstKeyedEntry(collection)
	}

	if record == nil {
		return nil, false
	}

	// Older exports wrap each array element as {"<responseid>": {...}}.
	if len(record) == 1 {
		for _, v := range record {
			if inner, ok := v.(map[string]any); ok {
				return inner, true
			}
		}
	}

	return record, len(record) > 0
}

// firstKeyedEntry returns the lowest-keyed value of a mapping-shaped
// collection, which keys each record by its response id. An entry that is
// not itself a record reports false.
func firstKeyedEntry(collection map[string]any) (map[string]any, bool) {
	keys := make([]string, 0, len(collection))
	for k := range collection {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)

	record, ok := collection[keys[0]].(map[string]any)

	return record, ok
}

// ApplyUsesLeft folds the participant's uses-left counter into the
// analysis. A counter other than one means the token was consumed at least
// once, so the survey is reported completed. Missing or unparsable values
// default to one.
func ApplyUsesLeft(analysis *Analysis, p limesurvey.Participant) {
	usesLeft := 1

	if raw, ok := p.Extra["usesleft"]; ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			usesLeft = n
		}
	}

	if usesLeft != 1 {
		analysis.Completed = true
	}
}
