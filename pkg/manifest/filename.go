package manifest

import (
	"regexp"
	"strings"
)

// reverseDNSFilename matches manifest file names such as
// org.gnome.Lollypop.json: at least three dot-separated segments, each
// starting with a letter, followed by a yaml or json extension. It is
// applied to the lower-cased path.
var reverseDNSFilename = regexp.MustCompile(
	`[a-z][a-z][a-z]*\.[a-z][0-9a-zA-Z_\-]+\.[a-z][0-9a-zA-Z_\-]+(\.[a-z][0-9a-zA-Z_\-]+)*\.(json|yaml|yml)$`,
)

// MatchesFilename reports whether path follows the reverse-DNS naming
// convention of application manifests. Files that do not match are never
// parsed as manifests, whatever their content.
func MatchesFilename(path string) bool {
	return reverseDNSFilename.MatchString(strings.ToLower(path))
}

// MatchesExtension reports whether path has a yaml, yml or json extension.
func MatchesExtension(path string) bool {
	_, ok := FormatFromPath(path)
	return ok
}

// StripJSONComments removes C-style block comments that flatpak-builder
// tolerates in JSON manifests. Comments are recognized per line: a line
// that opens with /* starts a comment and a line that closes with */ ends
// it. Comments trailing a JSON value on the same line are left alone.
func StripJSONComments(content string) string {
	var b strings.Builder
	inComment := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		opens := strings.HasPrefix(trimmed, "/*")
		closes := strings.HasSuffix(trimmed, "*/")
		switch {
		case opens && closes && !inComment:
			continue
		case opens && !inComment:
			inComment = true
			continue
		case closes && inComment:
			inComment = false
			continue
		case inComment:
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
