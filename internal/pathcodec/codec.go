// Package pathcodec converts filesystem paths to and from the
// directory-name-safe tokens used as project directory names under the log
// root. A literal dash in a path segment is escaped as a double dash, and
// each path separator becomes a single dash, so "/Users/a-b" encodes to
// "-Users-a--b". Decoding is exact for any path produced by Encode; legacy
// tokens written by older tools (which also flattened dots and other
// punctuation to dashes) are ambiguous and are resolved through the
// override table instead of guessed at.
package pathcodec

import "strings"

// placeholder protects escaped dashes during decode. It never occurs in
// real paths (it contains a NUL byte).
const placeholder = "\x00DASH\x00"

// Encode converts an absolute path to a directory-safe token.
func Encode(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = strings.ReplaceAll(seg, "-", "--")
	}
	return "-" + strings.Join(segments, "-")
}

// Decode converts a token back to the absolute path it encodes. Escaped
// double dashes are protected before the remaining single dashes become
// separators, then restored as literal dashes.
func Decode(token string) string {
	s := strings.TrimPrefix(token, "-")
	s = strings.ReplaceAll(s, "--", placeholder)
	s = strings.ReplaceAll(s, "-", "/")
	s = strings.ReplaceAll(s, placeholder, "-")
	return "/" + s
}

// DecodeWith decodes a token, consulting the override table first. An
// override always wins over the algorithmic decode.
func DecodeWith(token string, overrides *Overrides) string {
	if overrides != nil {
		if path, ok := overrides.Get(token); ok {
			return path
		}
	}
	return Decode(token)
}
