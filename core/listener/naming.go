// File: core/listener/naming.go
package listener

import "strings"

// MaxNameLen bounds a sanitized connection/socket name (spec.md §6.2):
// long enough for a UUID plus a short prefix, short enough to fit
// AF_UNIX's sun_path limit on every supported platform.
const MaxNameLen = 96

// SanitizeName restricts name to the charset safe for both a
// filesystem path component and a memfd display name: ASCII
// alphanumerics, '-', '_', and '.'. Any other byte is replaced with
// '_'; the result is truncated to MaxNameLen.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > MaxNameLen {
		out = out[:MaxNameLen]
	}
	if out == "" {
		return "conn"
	}
	return out
}
