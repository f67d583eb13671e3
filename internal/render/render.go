package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

// Placeholders shown when a field is missing from the request envelope.
const (
	DefaultMethod    = "UNKNOWN"
	DefaultSourceIP  = "unknown"
	DefaultUserAgent = "unknown"

	// MaxUserAgentLength is the number of characters of the user agent shown on the page.
	MaxUserAgentLength = 80

	// TimestampLayout is ISO-8601 local time with microseconds.
	TimestampLayout = "2006-01-02T15:04:05.000000"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

var page = template.Must(template.ParseFS(templatesFS, "templates/index.html.tmpl"))

func init() {
	// html/template escapes lazily on first execution; surface any problem at startup
	// so that Render never has to.
	if err := page.Execute(&bytes.Buffer{}, pageData{}); err != nil {
		panic(fmt.Errorf("validating page template: %w", err))
	}
}

// Response is the envelope handed back to the hosting platform.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type pageData struct {
	Timestamp string
	Method    string
	SourceIP  string
	UserAgent string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces the clock used to stamp rendered pages.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// Renderer turns a request envelope into an HTML page describing the request.
// It keeps no state between calls and is safe for concurrent use.
type Renderer struct {
	now func() time.Time
}

// New returns a Renderer stamping pages with the system clock unless WithClock is given.
func New(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render extracts the display fields from envelope and renders the page. It never
// fails: missing or malformed fields fall back to their defaults.
func (r *Renderer) Render(envelope map[string]any) Response {
	return r.RenderRequest(ParseRequest(envelope))
}

// RenderRequest renders the page for fields that were already extracted.
func (r *Renderer) RenderRequest(req Request) Response {
	data := pageData{
		Timestamp: FormatTimestamp(r.clock()),
		Method:    req.Method,
		SourceIP:  req.SourceIP,
		UserAgent: TruncateUserAgent(req.UserAgent),
	}

	var body bytes.Buffer
	if err := page.Execute(&body, data); err != nil {
		// Unreachable: the template is validated in init and only receives strings.
		panic(fmt.Errorf("rendering page: %w", err))
	}

	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":  "text/html",
			"Cache-Control": "no-cache",
		},
		Body: body.String(),
	}
}

func (r *Renderer) clock() time.Time {
	if r == nil || r.now == nil {
		return time.Now()
	}
	return r.now()
}

// FormatTimestamp formats t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// TruncateUserAgent returns the first MaxUserAgentLength characters of ua.
func TruncateUserAgent(ua string) string {
	runes := []rune(ua)
	if len(runes) <= MaxUserAgentLength {
		return ua
	}
	return string(runes[:MaxUserAgentLength])
}
