package export

import "strings"

// protectedHeaders are header names the SDK owns. User-supplied values for
// these are discarded so a misconfigured header map cannot clobber the
// negotiated credential or the wire format.
var protectedHeaders = map[string]struct{}{
	"authorization":   {},
	"content-type":    {},
	"user-agent":      {},
	"x-api-key":       {},
	"api-key":         {},
	"bearer":          {},
	"x-auth-token":    {},
	"x-session-token": {},
}

// IsProtectedHeader reports whether name is reserved by the exporter.
// The check is case-insensitive.
func IsProtectedHeader(name string) bool {
	_, ok := protectedHeaders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// FilterHeaders returns a copy of headers with protected names removed.
// The second return value lists the names that were dropped.
func FilterHeaders(headers map[string]string) (map[string]string, []string) {
	filtered := make(map[string]string, len(headers))
	var dropped []string
	for k, v := range headers {
		if IsProtectedHeader(k) {
			dropped = append(dropped, k)
			continue
		}
		filtered[k] = v
	}
	return filtered, dropped
}
