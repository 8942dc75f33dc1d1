package survey

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// placeholderPattern matches {title}, {attribute_8}, {nombre_profe}, etc.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// TitleFormatter rewrites survey titles using operator-configured
// templates with participant-data placeholders.
type TitleFormatter struct {
	byID   map[string]string
	global string
}

// NewTitleFormatter builds a formatter from the global template and the
// per-survey JSON map ({"123456": "{title} - {asignatura}"}). A malformed
// map is logged and ignored rather than failing startup.
func NewTitleFormatter(formatsByID, global string) *TitleFormatter {
	f := &TitleFormatter{global: global}

	if formatsByID != "" {
		if err := json.Unmarshal([]byte(formatsByID), &f.byID); err != nil {
			slog.Warn("Ignoring malformed per-survey title formats", "error", err)
			f.byID = nil
		}
	}

	return f
}

// Format applies the title template for the given survey. A non-empty
// per-survey template wins over the global one. Substitution is all or
// nothing: when any placeholder resolves to a missing or empty value, the
// original title is returned untouched.
func (f *TitleFormatter) Format(originalTitle, surveyID string, p limesurvey.Participant) string {
	format := f.byID[surveyID]
	if format == "" {
		format = f.global
	}
	if format == "" {
		return originalTitle
	}

	formatted := strings.ReplaceAll(format, "{title}", originalTitle)

	missing := false

	formatted = placeholderPattern.ReplaceAllStringFunc(formatted, func(placeholder string) string {
		key := placeholder[1 : len(placeholder)-1]

		value := participantValue(p, key)
		if value == "" {
			value = participantValue(p, "attribute_"+key)
		}
		if value == "" {
			missing = true
			return placeholder
		}

		return value
	})

	if missing {
		return originalTitle
	}

	return formatted
}

// participantValue looks up a placeholder key in the participant record,
// covering both the fixed fields and the attribute map.
func participantValue(p limesurvey.Participant, key string) string {
	switch key {
	case "firstname":
		return p.Info.FirstName
	case "lastname":
		return p.Info.LastName
	case "email":
		return p.Info.Email
	case "token":
		return p.Token
	case "tid":
		return p.TID
	}

	return p.Extra[key]
}
