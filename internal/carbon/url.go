package carbon

import (
	"net/url"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// BuildRequestURL encodes a validated request into the renderer's query
// format on top of base. Keys are emitted in sorted order so equal requests
// give equal URLs.
func BuildRequestURL(base string, req ImageRequest) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "parse renderer url %q", base)
	}

	fields := make(map[string]string, len(req.Style)+3)
	for name, value := range req.Style {
		key, ok := queryKeys[name]
		if !ok {
			key = name
		}
		fields[key] = value
	}
	fields[queryKeys["code"]] = req.Code
	fields[queryKeys["theme"]] = req.Theme
	fields[queryKeys["language"]] = req.Language

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	if u.RawQuery != "" {
		b.WriteString(u.RawQuery)
	}
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		if k == queryKeys["code"] {
			b.WriteString(escapeCode(fields[k]))
		} else {
			b.WriteString(url.QueryEscape(fields[k]))
		}
	}
	u.RawQuery = b.String()
	return u.String(), nil
}

// escapeCode escapes code for a renderer that decodes it twice. Each segment
// is escaped twice; NewLine tokens are left as they are so the two decodes
// turn them into newlines.
func escapeCode(code string) string {
	parts := strings.Split(code, NewLine)
	for i, p := range parts {
		parts[i] = url.QueryEscape(url.QueryEscape(p))
	}
	return strings.Join(parts, NewLine)
}
