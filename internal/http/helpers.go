package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const dateLayout = "2006-01-02"

// parseDay extracts a YYYY-MM-DD date from a query parameter, falling
// back to today.
func parseDay(r *http.Request, param string) time.Time {
	if v := strings.TrimSpace(r.URL.Query().Get(param)); v != "" {
		if d, err := time.ParseInLocation(dateLayout, v, time.Local); err == nil {
			return d
		}
	}
	return time.Now()
}

// parseDateRange extracts the start/end query parameters. The default
// window is the last month up to today, matching the report pages'
// initial view.
func parseDateRange(r *http.Request) (start, end time.Time) {
	now := time.Now()
	start = now.AddDate(0, -1, 0)
	end = now

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		if d, err := time.ParseInLocation(dateLayout, v, time.Local); err == nil {
			start = d
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		if d, err := time.ParseInLocation(dateLayout, v, time.Local); err == nil {
			end = d
		}
	}
	return start, end
}

// sanitizeInput removes potentially dangerous characters and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// clientAddress extracts the client IP, considering proxies.
func clientAddress(r *http.Request) string {
	clientIP := r.Header.Get("X-Forwarded-For")
	if clientIP == "" {
		clientIP = r.Header.Get("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = r.RemoteAddr
	}
	return clientIP
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// requirePost rejects non-POST requests. Returns false when the request
// was rejected.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// redirectBack sends the browser back to the page the form lives on.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := r.Header.Get("Referer")
	if target == "" {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
