package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds, as declared by the type field of a source description.
const (
	SourceArchive   = "archive"
	SourceGit       = "git"
	SourceBzr       = "bzr"
	SourceSvn       = "svn"
	SourceDir       = "dir"
	SourceFile      = "file"
	SourceScript    = "script"
	SourceShell     = "shell"
	SourcePatch     = "patch"
	SourceExtraData = "extra-data"
)

// Pseudo-kinds reported by [Source.KindName].
const (
	KindEmpty = "empty"
	KindPath  = "path"
)

// DefaultSourceKind is the effective kind of a source without a type.
const DefaultSourceKind = SourceArchive

// SourceKinds lists the valid values of the type field.
var SourceKinds = []string{
	SourceArchive,
	SourceGit,
	SourceBzr,
	SourceSvn,
	SourceDir,
	SourceFile,
	SourceScript,
	SourceShell,
	SourcePatch,
	SourceExtraData,
}

// Source is either a Reference to a separate sources file or an inline
// Description. Exactly one of the two is set.
type Source struct {
	Reference   string
	Description *SourceDescription
}

// IsReference reports whether the source points to another file.
func (s Source) IsReference() bool {
	return s.Description == nil
}

// KindName returns the declared kind, "empty" when the type field is unset
// and "path" for references.
func (s Source) KindName() string {
	if s.Description == nil {
		return KindPath
	}
	if s.Description.Type == "" {
		return KindEmpty
	}
	return s.Description.Type
}

// Kind returns the effective kind: an unset type counts as archive.
func (s Source) Kind() string {
	if s.Description != nil && s.Description.Type == "" {
		return DefaultSourceKind
	}
	return s.KindName()
}

// KindIsValid reports whether the declared kind is one flatpak-builder
// knows. References are always valid; an unset type is not.
func (s Source) KindIsValid() bool {
	if s.Description == nil {
		return true
	}
	return slices.Contains(SourceKinds, s.Description.Type)
}

// SupportsMirrorURLs reports whether the kind accepts mirror-urls. Only
// archive and file sources do.
func (s Source) SupportsMirrorURLs() bool {
	kind := s.KindName()
	return kind == SourceArchive || kind == SourceFile
}

// HasCommit reports whether a commit is pinned.
func (s Source) HasCommit() bool {
	return s.Description != nil && s.Description.Commit != ""
}

// HasTag reports whether a tag is pinned.
func (s Source) HasTag() bool {
	return s.Description != nil && s.Description.Tag != ""
}

// URL returns the primary URL.
func (s Source) URL() (string, bool) {
	if s.Description == nil || s.Description.URL == "" {
		return "", false
	}
	return s.Description.URL, true
}

// MirrorURLs returns the mirror URLs.
func (s Source) MirrorURLs() []string {
	if s.Description == nil {
		return nil
	}
	return slices.Clone(s.Description.MirrorURLs)
}

// AllURLs returns the primary URL followed by the mirror URLs.
func (s Source) AllURLs() []string {
	var urls []string
	if u, ok := s.URL(); ok {
		urls = append(urls, u)
	}
	return append(urls, s.MirrorURLs()...)
}

// UnmarshalJSON decodes an inline description, falling back to a path.
func (s *Source) UnmarshalJSON(data []byte) error {
	var d SourceDescription
	if err := json.Unmarshal(data, &d); err == nil {
		*s = Source{Description: &d}
		return nil
	}
	var ref string
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("source is neither a description nor a path: %w", err)
	}
	*s = Source{Reference: ref}
	return nil
}

// MarshalJSON encodes the variant that is set.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.Description != nil {
		return json.Marshal(s.Description)
	}
	return json.Marshal(s.Reference)
}

// UnmarshalYAML decodes an inline description, falling back to a path.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	var d SourceDescription
	if err := value.Decode(&d); err == nil {
		*s = Source{Description: &d}
		return nil
	}
	var ref string
	if err := value.Decode(&ref); err != nil {
		return fmt.Errorf("line %d: source is neither a description nor a path: %w", value.Line, err)
	}
	*s = Source{Reference: ref}
	return nil
}

// MarshalYAML encodes the variant that is set.
func (s Source) MarshalYAML() (any, error) {
	if s.Description != nil {
		return s.Description, nil
	}
	return s.Reference, nil
}

// SourceDescription is an inline source. Which fields apply depends on
// Type; the rest stay empty.
type SourceDescription struct {
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Commands     []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	DestFilename string   `json:"dest-filename,omitempty" yaml:"dest-filename,omitempty"`
	Filename     string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	URL          string   `json:"url,omitempty" yaml:"url,omitempty"`
	MirrorURLs   []string `json:"mirror-urls,omitempty" yaml:"mirror-urls,omitempty"`

	MD5           string `json:"md5,omitempty" yaml:"md5,omitempty"`
	SHA1          string `json:"sha1,omitempty" yaml:"sha1,omitempty"`
	SHA256        string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	SHA512        string `json:"sha512,omitempty" yaml:"sha512,omitempty"`
	Size          *int64 `json:"size,omitempty" yaml:"size,omitempty"`
	InstalledSize string `json:"installed-size,omitempty" yaml:"installed-size,omitempty"`

	GitInit  *bool  `json:"git-init,omitempty" yaml:"git-init,omitempty"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit   string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Tag      string `json:"tag,omitempty" yaml:"tag,omitempty"`

	ArchiveType     string `json:"archive-type,omitempty" yaml:"archive-type,omitempty"`
	StripComponents *int64 `json:"strip-components,omitempty" yaml:"strip-components,omitempty"`

	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Paths    []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	UseGit   *bool    `json:"use-git,omitempty" yaml:"use-git,omitempty"`
	UseGitAm *bool    `json:"use-git-am,omitempty" yaml:"use-git-am,omitempty"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`

	DisableFsckobjects  *bool `json:"disable-fsckobjects,omitempty" yaml:"disable-fsckobjects,omitempty"`
	DisableShallowClone *bool `json:"disable-shallow-clone,omitempty" yaml:"disable-shallow-clone,omitempty"`
	DisableSubmodules   *bool `json:"disable-submodules,omitempty" yaml:"disable-submodules,omitempty"`

	Skip       []string `json:"skip,omitempty" yaml:"skip,omitempty"`
	OnlyArches []string `json:"only-arches,omitempty" yaml:"only-arches,omitempty"`
	SkipArches []string `json:"skip-arches,omitempty" yaml:"skip-arches,omitempty"`
	Dest       string   `json:"dest,omitempty" yaml:"dest,omitempty"`
}

// archiveSuffixes maps URL suffixes to flatpak-builder archive types.
// Order matters: the first matching suffix wins.
var archiveSuffixes = []struct {
	suffix string
	kind   string
}{
	{".tar", "tar"},
	{".tar.gz", "tar-gzip"},
	{".tgz", "tar-gzip"},
	{".taz", "tar-gzip"},
	{".tar.z", "tar-compress"},
	{".tar.bz2", "tar-bzip2"},
	{".tz2", "tar-bzip2"},
	{".tbz2", "tar-bzip2"},
	{".tbz", "tar-bzip2"},
	{".tar.lz", "tar-lzip"},
	{".tar.lzma", "tar-lzma"},
	{".tlz", "tar-lzma"},
	{".tar.lzo", "tar-lzop"},
	{".tar.xz", "tar-xz"},
	{".txz", "tar-xz"},
	{".tar.zst", "tar-zst"},
	{".zip", "zip"},
	{".rpm", "rpm"},
	{".7z", "sevenz"},
}

// DetectArchiveType returns the archive type implied by the URL suffix,
// using the same names as the archive-type field.
func DetectArchiveType(url string) (string, bool) {
	lower := strings.ToLower(url)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.kind, true
		}
	}
	return "", false
}

// TallySourceKinds counts the sources of the given modules and all their
// descendants by [Source.KindName]. Unset kinds are counted under "empty",
// separately from explicit archives.
func TallySourceKinds(modules []Module) map[string]int {
	counts := make(map[string]int)
	var walk func([]Module)
	walk = func(mods []Module) {
		for _, mod := range mods {
			if mod.Description == nil {
				continue
			}
			for _, src := range mod.Description.Sources {
				counts[src.KindName()]++
			}
			walk(mod.Description.Modules)
		}
	}
	walk(modules)
	return counts
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
