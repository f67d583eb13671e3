package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Request holds the fields of an invocation that end up on the page.
type Request struct {
	Method    string
	SourceIP  string
	UserAgent string
}

// DecodeEnvelope decodes a raw invocation payload. Anything that is not a JSON
// object decodes to an empty envelope.
func DecodeEnvelope(payload []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil || envelope == nil {
		return map[string]any{}
	}
	return envelope
}

// ParseRequest reads requestContext.http.method, requestContext.http.sourceIp and
// headers["user-agent"] from envelope. Header names are matched exactly.
func ParseRequest(envelope map[string]any) Request {
	return Request{
		Method:    lookupString(envelope, DefaultMethod, "requestContext", "http", "method"),
		SourceIP:  lookupString(envelope, DefaultSourceIP, "requestContext", "http", "sourceIp"),
		UserAgent: lookupString(envelope, DefaultUserAgent, "headers", "user-agent"),
	}
}

func lookupString(m map[string]any, fallback string, path ...string) string {
	var value any = m
	for _, key := range path {
		level, ok := value.(map[string]any)
		if !ok {
			return fallback
		}
		if value, ok = level[key]; !ok {
			return fallback
		}
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int32, int64, uint, uint32, uint64, float32:
		return fmt.Sprint(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fallback
	}
}
