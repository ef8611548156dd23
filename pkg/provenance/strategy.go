package provenance

import (
	"fmt"
	"regexp"
)

// Strategy rewrites archive URLs of one forge into the forge's git URL.
type Strategy struct {
	Name    string
	Pattern *regexp.Regexp

	// Rewrite builds the git URL from the submatches of Pattern.
	Rewrite func(m []string) string
}

// Match applies the strategy to archiveURL.
func (s Strategy) Match(archiveURL string) (string, bool) {
	m := s.Pattern.FindStringSubmatch(archiveURL)
	if m == nil {
		return "", false
	}
	return s.Rewrite(m), true
}

const segment = `([0-9a-zA-Z_-]+)`

// DefaultStrategies lists the forge rewrites in priority order; the first
// match wins.
var DefaultStrategies = []Strategy{
	ownerRepo("github", `^https?://github\.com/`, "https://github.com/%s/%s.git"),
	ownerRepo("gitlab", `^https?://gitlab\.com/`, "https://gitlab.com/%s/%s.git"),
	ownerRepo("gnome-gitlab", `^https?://gitlab\.gnome\.org/`, "https://gitlab.gnome.org/%s/%s.git"),
	project("pagure", `^https://pagure\.io/`, "https://pagure.io/%s.git"),
	project("gnu", `^https?://ftp\.gnu\.org/(?:pub/)?gnu/`, "https://git.savannah.gnu.org/git/%s.git"),
	project("nongnu-releases", `^https?://download\.savannah\.nongnu\.org/releases/`, "https://git.savannah.nongnu.org/git/%s.git"),
	project("nongnu-download", `^https?://savannah\.nongnu\.org/download/`, "https://git.savannah.nongnu.org/git/%s.git"),
	ownerRepo("bitbucket", `^https?://bitbucket\.org/`, "https://bitbucket.org/%s/%s.git"),
}

func ownerRepo(name, prefix, format string) Strategy {
	return Strategy{
		Name:    name,
		Pattern: regexp.MustCompile(prefix + segment + "/" + segment),
		Rewrite: func(m []string) string { return fmt.Sprintf(format, m[1], m[2]) },
	}
}

func project(name, prefix, format string) Strategy {
	return Strategy{
		Name:    name,
		Pattern: regexp.MustCompile(prefix + segment),
		Rewrite: func(m []string) string { return fmt.Sprintf(format, m[1]) },
	}
}
