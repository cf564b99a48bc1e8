package compile

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// FormatFunc reports whether a string satisfies a named format.
type FormatFunc func(string) bool

// DefaultFormats returns a fresh registry of the built-in format assertions.
// Formats not in the registry are treated as annotations.
func DefaultFormats() map[string]FormatFunc {
	return map[string]FormatFunc{
		"uuid":      isUUID,
		"date-time": isDateTime,
		"uri":       isURI,
		"byte":      isBase64,
		"regex":     isRegex,
	}
}

// isUUID accepts the hyphenated 8-4-4-4-12 form only; uuid.Parse alone also
// takes the URN and braced forms.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func isBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}

func isRegex(s string) bool {
	_, err := regexp.Compile(s)
	return err == nil
}
