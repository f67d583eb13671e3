package render

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frozen = time.Date(2025, time.March, 14, 9, 26, 53, 589793000, time.UTC)

func frozenClock() time.Time { return frozen }

func sampleEnvelope(userAgent string) map[string]any {
	return map[string]any{
		"requestContext": map[string]any{
			"http": map[string]any{
				"method":   "GET",
				"sourceIp": "127.0.0.1",
			},
		},
		"headers": map[string]any{
			"user-agent": userAgent,
		},
	}
}

// requestInfo returns the text of the paragraph labelled label in the request information box.
func requestInfo(t *testing.T, body string, label string) string {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	var text string
	doc.Find(".info-box p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Find("strong").First().Text() == label {
			text = strings.TrimPrefix(s.Text(), label+" ")
			return false
		}
		return true
	})
	return text
}

func TestRender_SampleRequest(t *testing.T) {
	resp := New(WithClock(frozenClock)).Render(sampleEnvelope("Test Browser"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Body, "GET")
	assert.Contains(t, resp.Body, "127.0.0.1")
	assert.Contains(t, resp.Body, "Test Browser...")
	assert.True(t, strings.HasPrefix(resp.Body, "<!DOCTYPE html>"))

	assert.Equal(t, "2025-03-14T09:26:53.589793", requestInfo(t, resp.Body, "Timestamp:"))
	assert.Equal(t, "GET", requestInfo(t, resp.Body, "Method:"))
	assert.Equal(t, "127.0.0.1", requestInfo(t, resp.Body, "Your IP:"))
	assert.Equal(t, "Test Browser...", requestInfo(t, resp.Body, "User Agent:"))
}

func TestRender_EmptyEnvelope(t *testing.T) {
	resp := New(WithClock(frozenClock)).Render(map[string]any{})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, strings.Count(resp.Body, "UNKNOWN"))
	assert.Equal(t, 2, strings.Count(resp.Body, "unknown"))
	assert.Equal(t, "unknown...", requestInfo(t, resp.Body, "User Agent:"))
}

func TestRender_FixedEnvelopeShape(t *testing.T) {
	envelopes := []map[string]any{
		nil,
		{},
		{"requestContext": 42},
		{"headers": "user-agent"},
		sampleEnvelope(strings.Repeat("x", 500)),
	}

	r := New()
	for _, envelope := range envelopes {
		resp := r.Render(envelope)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]string{
			"Content-Type":  "text/html",
			"Cache-Control": "no-cache",
		}, resp.Headers)
	}
}

func TestRender_HeadersAreNotShared(t *testing.T) {
	r := New()
	first := r.Render(nil)
	first.Headers["Content-Type"] = "application/json"

	assert.Equal(t, "text/html", r.Render(nil).Headers["Content-Type"])
}

func TestRender_UserAgentTruncation(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		expected  string
	}{
		{"short", "Test Browser", "Test Browser..."},
		{"exactly the limit", strings.Repeat("a", 80), strings.Repeat("a", 80) + "..."},
		{"over the limit", strings.Repeat("a", 80) + "TAIL", strings.Repeat("a", 80) + "..."},
		{"multibyte characters", strings.Repeat("é", 100), strings.Repeat("é", 80) + "..."},
		{"empty", "", "..."},
	}

	r := New(WithClock(frozenClock))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := r.Render(sampleEnvelope(tt.userAgent))
			assert.Equal(t, tt.expected, requestInfo(t, resp.Body, "User Agent:"))
			assert.NotContains(t, resp.Body, "TAIL")
		})
	}
}

func TestRender_EscapesUntrustedFields(t *testing.T) {
	ua := `<script>alert("x")</script><p class="evil">`
	envelope := sampleEnvelope(ua)
	envelope["requestContext"].(map[string]any)["http"].(map[string]any)["method"] = `</p><h1>GET</h1>`

	resp := New(WithClock(frozenClock)).Render(envelope)

	assert.NotContains(t, resp.Body, "<script>")
	assert.Contains(t, resp.Body, "&lt;script&gt;")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, 0, doc.Find("p.evil").Length())
	assert.Equal(t, 1, doc.Find("h1").Length())
	assert.Equal(t, 4, doc.Find(".info-box").Length())

	assert.Equal(t, ua+"...", requestInfo(t, resp.Body, "User Agent:"))
	assert.Equal(t, `</p><h1>GET</h1>`, requestInfo(t, resp.Body, "Method:"))
}

func TestRender_DeterministicWithFrozenClock(t *testing.T) {
	r := New(WithClock(frozenClock))
	envelope := sampleEnvelope("Test Browser")

	assert.Equal(t, r.Render(envelope).Body, r.Render(envelope).Body)
}

func TestRender_BodiesDifferOnlyInTimestamp(t *testing.T) {
	ticks := []time.Time{frozen, frozen.Add(1500 * time.Millisecond)}
	calls := 0
	r := New(WithClock(func() time.Time {
		now := ticks[calls]
		calls++
		return now
	}))

	first := r.Render(sampleEnvelope("Test Browser")).Body
	second := r.Render(sampleEnvelope("Test Browser")).Body
	require.NotEqual(t, first, second)

	assert.Equal(t,
		strings.Replace(first, FormatTimestamp(ticks[0]), "", 1),
		strings.Replace(second, FormatTimestamp(ticks[1]), "", 1),
	)
}

func TestRender_ConcurrentUse(t *testing.T) {
	r := New(WithClock(frozenClock))
	expected := r.Render(sampleEnvelope("Test Browser")).Body

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, expected, r.Render(sampleEnvelope("Test Browser")).Body)
		}()
	}
	wg.Wait()
}

func TestRenderer_ZeroValueUsesSystemClock(t *testing.T) {
	before := time.Now()
	resp := (&Renderer{}).Render(nil)

	stamp, err := time.ParseInLocation(TimestampLayout, requestInfo(t, resp.Body, "Timestamp:"), time.Local)
	require.NoError(t, err)
	assert.False(t, stamp.Before(before.Truncate(time.Microsecond)))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2025-03-14T09:26:53.589793", FormatTimestamp(frozen))
	assert.Equal(t, "2025-03-14T09:26:53.000000", FormatTimestamp(frozen.Truncate(time.Second)))
}

func TestTruncateUserAgent(t *testing.T) {
	assert.Equal(t, "Mozilla", TruncateUserAgent("Mozilla"))
	assert.Len(t, []rune(TruncateUserAgent(strings.Repeat("ü", 81))), MaxUserAgentLength)
}
