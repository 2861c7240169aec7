package onboarding

// EffectType identifies an external side effect produced by a dispatch.
type EffectType string

const (
	// EffectDownload tells the caller to open a URL as a file download.
	EffectDownload EffectType = "download"
	// EffectAPI is an outbound HTTP call executed server-side, best effort.
	EffectAPI EffectType = "api"
	// EffectDB forwards a pre-registered operation to the database proxy,
	// best effort.
	EffectDB EffectType = "db"
)

// Effect describes the external side effect of a dispatched action. Effects
// never carry record state; they are fire-and-forget and their failure must
// not block or corrupt navigation.
type Effect struct {
	Type    EffectType        `json:"type"`
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	DBType  string            `json:"dbType,omitempty"`
	Query   string            `json:"query,omitempty"`
}
