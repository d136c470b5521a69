package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"consultas/internal/services"
)

// maxBodyBytes caps form bodies; the largest field is a 2000 character
// description.
const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid appointment id")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Raw returns the first value of key untouched. Passwords go through here.
func (p *RequestBodyParser) Raw(key string) string {
	if v := p.Values(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns every value of key: repeated form fields or a JSON array.
func (p *RequestBodyParser) Values(key string) []string {
	if p.jsonData != nil {
		switch v := p.jsonData[key].(type) {
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, stringValue(item))
			}
			return out
		case nil:
			return nil
		default:
			return []string{stringValue(v)}
		}
	}
	if p.formData != nil {
		return p.formData[key]
	}
	return nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters except tab and newlines and trims
// surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// recordRequest maps the Add form onto the service request.
func recordRequest(p *RequestBodyParser) services.RecordRequest {
	return services.RecordRequest{
		PatientName: p.Get("patient_name"),
		NationalID:  p.Get("national_id"),
		Description: p.Get("description"),
		AmountPaid:  p.Get("amount_paid"),
	}
}

// parseIDs converts the checked ids, dropping duplicates. Any value that is
// not a positive integer fails the whole selection.
func parseIDs(values []string) ([]int64, error) {
	seen := make(map[int64]bool, len(values))
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, s)
	}
	return id, nil
}

// isHTMX reports whether r was issued by htmx rather than a full page load.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
