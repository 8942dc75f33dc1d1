// Package i18n provides the localized user-facing messages. The remote
// detail behind a failure is logged, never shown; users only ever see one
// of these short messages.
package i18n

// Message keys.
const (
	MsgErrorConfig     = "error_config"
	MsgErrorConfigURL  = "error_config_url"
	MsgErrorConnection = "error_connection"
	MsgNoSurveys       = "nosurveys"
	MsgCacheCleared    = "cache_cleared"
)

var catalogs = map[string]map[string]string{
	"en": {
		MsgErrorConfig:     "Please configure the LimeSurvey connection in the site administration.",
		MsgErrorConfigURL:  "Please configure the real LimeSurvey URL in the settings.",
		MsgErrorConnection: "Error connecting to LimeSurvey.",
		MsgNoSurveys:       "You have no active surveys.",
		MsgCacheCleared:    "Cache cleared successfully",
	},
	"es": {
		MsgErrorConfig:     "Por favor configure la conexión con LimeSurvey en la administración del sitio.",
		MsgErrorConfigURL:  "Por favor configure la URL real de LimeSurvey en la configuración.",
		MsgErrorConnection: "Error al conectar con LimeSurvey.",
		MsgNoSurveys:       "No tienes encuestas activas.",
		MsgCacheCleared:    "Caché borrada correctamente",
	},
}

// T returns the message for key in the given locale, falling back to
// English, then to the key itself for unknown messages.
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}

	if msg, ok := catalogs["en"][key]; ok {
		return msg
	}

	return key
}
