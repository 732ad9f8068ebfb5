package extract

import (
	"fmt"
	"strings"
)

// Kind classifies an extraction failure.
type Kind string

const (
	// KindFetch covers transport failures and unreachable or missing pages.
	KindFetch Kind = "fetch_error"
	// KindService is a non-success answer from the extraction service.
	KindService Kind = "service_error"
	// KindParse is a response that could not be decoded into a payload.
	KindParse Kind = "parse_error"
	// KindInvalidSource is an empty or unusable URL list.
	KindInvalidSource Kind = "invalid_source"
)

// Error is returned by every backend when extraction fails for a URL.
// StatusCode is zero when no HTTP response was received.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("extract")
	if e.URL != "" {
		b.WriteString(" ")
		b.WriteString(e.URL)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func firstURL(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func checkURLs(urls []string) error {
	if len(urls) == 0 {
		return &Error{Kind: KindInvalidSource, Reason: "no urls given"}
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return &Error{Kind: KindInvalidSource, URL: firstURL(urls), Reason: "empty url in list"}
		}
	}
	return nil
}
