package provenance

import (
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)(-[0-9a-zA-Z_]+)?`)
	namePattern    = regexp.MustCompile(`([0-9a-zA-Z_-]+)-[0-9]+\.[0-9]+\.[0-9]+`)
)

// VersionToken extracts the major.minor.patch version from the file name
// of archiveURL. A pre-release suffix is tolerated but not returned.
// Zero-padded parts, as in date versions like 2020.01.05, are kept as
// written since release tags spell them the same way.
func VersionToken(archiveURL string) (string, bool) {
	m := versionPattern.FindStringSubmatch(path.Base(archiveURL))
	if m == nil {
		return "", false
	}
	if _, err := semver.StrictNewVersion(unpad(m[1])); err != nil {
		return "", false
	}
	return m[1], true
}

// unpad drops leading zeros from each dot-separated part of v.
func unpad(v string) string {
	parts := strings.Split(v, ".")
	for i, p := range parts {
		if p = strings.TrimLeft(p, "0"); p == "" {
			p = "0"
		}
		parts[i] = p
	}
	return strings.Join(parts, ".")
}

// NameToken extracts the project name preceding a dash-led version in the
// file name of archiveURL: libgsf-1.14.43.tar.xz yields libgsf.
func NameToken(archiveURL string) (string, bool) {
	m := namePattern.FindStringSubmatch(path.Base(archiveURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}
