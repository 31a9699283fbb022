package entities

import "net/http"

// Cache slots outside the three collections.
const (
	CacheKeyConfig          = "lifeos_config"
	CacheKeyNotificationLog = "lifeos_notification_log"
	CacheKeyAuthSession     = "lifeos_auth_session"
)

// Credential header names recognized by the backend adapter. Matching is
// case-insensitive on the wire; these are the canonical forms advertised in the
// CORS preflight.
const (
	HeaderDatabaseURL = "X-Database-Url"
	HeaderDatabaseID  = "X-Database-Id" // legacy alias for HeaderDatabaseURL
	HeaderPSHost      = "X-Ps-Host"
	HeaderPSUsername  = "X-Ps-Username"
	HeaderPSPassword  = "X-Ps-Password"
	HeaderSupabaseURL = "X-Supabase-Url"
	HeaderSupabaseKey = "X-Supabase-Key"
)

// CredentialHeaders lists every credential header name for CORS preflight.
func CredentialHeaders() []string {
	return []string{
		HeaderDatabaseURL, HeaderDatabaseID,
		HeaderPSHost, HeaderPSUsername, HeaderPSPassword,
		HeaderSupabaseURL, HeaderSupabaseKey,
	}
}

// BackendKind identifies which database a set of credentials targets.
type BackendKind string

const (
	BackendNone     BackendKind = ""
	BackendPostgres BackendKind = "postgres"
	BackendMySQL    BackendKind = "mysql"
	BackendMongo    BackendKind = "mongodb"
	BackendSupabase BackendKind = "supabase"
)

// Credentials carries whichever credential style the configured backend requires:
// a single connection URI, a host/user/pass triple, or a URL+key pair.
type Credentials struct {
	DatabaseURL string `json:"databaseUrl,omitempty"`
	PSHost      string `json:"psHost,omitempty"`
	PSUsername  string `json:"psUsername,omitempty"`
	PSPassword  string `json:"psPassword,omitempty"`
	SupabaseURL string `json:"supabaseUrl,omitempty"`
	SupabaseKey string `json:"supabaseKey,omitempty"`
}

// Kind detects the backend targeted by the credentials. URI-style credentials win
// over the PlanetScale triple, which wins over the Supabase pair.
func (c Credentials) Kind() BackendKind {
	switch {
	case len(c.DatabaseURL) >= 7 && c.DatabaseURL[:7] == "mongodb":
		return BackendMongo
	case c.DatabaseURL != "":
		return BackendPostgres
	case c.PSHost != "" && c.PSUsername != "" && c.PSPassword != "":
		return BackendMySQL
	case c.SupabaseURL != "" && c.SupabaseKey != "":
		return BackendSupabase
	default:
		return BackendNone
	}
}

// Empty reports whether no usable credential set is present.
func (c Credentials) Empty() bool {
	return c.Kind() == BackendNone
}

// Key returns the full credential string used to decide whether a cached
// database client can be reused.
func (c Credentials) Key() string {
	return c.DatabaseURL + "|" + c.PSHost + "|" + c.PSUsername + "|" + c.PSPassword +
		"|" + c.SupabaseURL + "|" + c.SupabaseKey
}

// Headers returns the header set matching the credential style, attached
// verbatim by the sync client. An empty credential set yields no headers and the
// adapter falls back to its environment.
func (c Credentials) Headers() map[string]string {
	headers := map[string]string{}
	switch c.Kind() {
	case BackendPostgres, BackendMongo:
		headers[HeaderDatabaseURL] = c.DatabaseURL
	case BackendMySQL:
		headers[HeaderPSHost] = c.PSHost
		headers[HeaderPSUsername] = c.PSUsername
		headers[HeaderPSPassword] = c.PSPassword
	case BackendSupabase:
		headers[HeaderSupabaseURL] = c.SupabaseURL
		headers[HeaderSupabaseKey] = c.SupabaseKey
	}
	return headers
}

// CredentialsFromHeader reads credentials from request headers. Header lookup is
// case-insensitive via http.Header canonicalization.
func CredentialsFromHeader(h http.Header) Credentials {
	uri := h.Get(HeaderDatabaseURL)
	if uri == "" {
		uri = h.Get(HeaderDatabaseID)
	}
	return Credentials{
		DatabaseURL: uri,
		PSHost:      h.Get(HeaderPSHost),
		PSUsername:  h.Get(HeaderPSUsername),
		PSPassword:  h.Get(HeaderPSPassword),
		SupabaseURL: h.Get(HeaderSupabaseURL),
		SupabaseKey: h.Get(HeaderSupabaseKey),
	}
}

// Settings is the user preference record persisted under lifeos_config. It is
// owned by the UI; the backend adapter only ever sees the credential headers
// derived from it.
type Settings struct {
	WeatherLocation      string `json:"weatherLocation"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	NotificationTiming   Window `json:"notificationTiming"`
	Credentials
}

// DefaultSettings returns the settings used before the user saves anything.
func DefaultSettings() Settings {
	return Settings{
		WeatherLocation:    "Skierniewice, PL",
		NotificationTiming: Window24h,
	}
}

// Merge overlays every non-zero field of other onto s. Used by transfer token
// import so a partial token never wipes existing preferences.
func (s *Settings) Merge(other Settings) {
	if other.WeatherLocation != "" {
		s.WeatherLocation = other.WeatherLocation
	}
	if other.NotificationTiming != "" {
		s.NotificationTiming = other.NotificationTiming
	}
	if other.NotificationsEnabled {
		s.NotificationsEnabled = true
	}
	if other.DatabaseURL != "" {
		s.DatabaseURL = other.DatabaseURL
	}
	if other.PSHost != "" {
		s.PSHost = other.PSHost
	}
	if other.PSUsername != "" {
		s.PSUsername = other.PSUsername
	}
	if other.PSPassword != "" {
		s.PSPassword = other.PSPassword
	}
	if other.SupabaseURL != "" {
		s.SupabaseURL = other.SupabaseURL
	}
	if other.SupabaseKey != "" {
		s.SupabaseKey = other.SupabaseKey
	}
}
