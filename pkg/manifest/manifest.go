package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flatmine/pkg/errors"
)

// Format is the serialization format a manifest was parsed from.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// String returns the lowercase format name.
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML, true
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, true
	}
	return FormatYAML, false
}

// Manifest is a Flatpak application (or extension) manifest.
type Manifest struct {
	Format Format `json:"-" yaml:"-"`

	AppName string `json:"app-name,omitempty" yaml:"app-name,omitempty"`

	// AppID and ID are the two historical names of the application
	// identifier. Use [Manifest.Identifier] to read it.
	AppID string `json:"app-id,omitempty" yaml:"app-id,omitempty"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`

	Branch        string `json:"branch,omitempty" yaml:"branch,omitempty"`
	DefaultBranch string `json:"default-branch,omitempty" yaml:"default-branch,omitempty"`
	CollectionID  string `json:"collection-id,omitempty" yaml:"collection-id,omitempty"`

	Runtime        string   `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	RuntimeVersion string   `json:"runtime-version,omitempty" yaml:"runtime-version,omitempty"`
	Sdk            string   `json:"sdk,omitempty" yaml:"sdk,omitempty"`
	SdkExtensions  []string `json:"sdk-extensions,omitempty" yaml:"sdk-extensions,omitempty"`
	Var            string   `json:"var,omitempty" yaml:"var,omitempty"`
	Metadata       string   `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	BuildRuntime   *bool `json:"build-runtime,omitempty" yaml:"build-runtime,omitempty"`
	BuildExtension *bool `json:"build-extension,omitempty" yaml:"build-extension,omitempty"`

	Base                 string   `json:"base,omitempty" yaml:"base,omitempty"`
	BaseVersion          string   `json:"base-version,omitempty" yaml:"base-version,omitempty"`
	BaseExtensions       []string `json:"base-extensions,omitempty" yaml:"base-extensions,omitempty"`
	InheritExtensions    []string `json:"inherit-extensions,omitempty" yaml:"inherit-extensions,omitempty"`
	InheritSdkExtensions []string `json:"inherit-sdk-extensions,omitempty" yaml:"inherit-sdk-extensions,omitempty"`

	BuildOptions *BuildOptions `json:"build-options,omitempty" yaml:"build-options,omitempty"`
	Command      string        `json:"command,omitempty" yaml:"command,omitempty"`
	Tags         []string      `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Extension points declared by the application.
	AddExtensions      map[string]*Extension `json:"add-extensions,omitempty" yaml:"add-extensions,omitempty"`
	AddBuildExtensions map[string]*Extension `json:"add-build-extensions,omitempty" yaml:"add-build-extensions,omitempty"`

	Cleanup                 []string `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	CleanupCommands         []string `json:"cleanup-commands,omitempty" yaml:"cleanup-commands,omitempty"`
	CleanupPlatform         []string `json:"cleanup-platform,omitempty" yaml:"cleanup-platform,omitempty"`
	CleanupPlatformCommands []string `json:"cleanup-platform-commands,omitempty" yaml:"cleanup-platform-commands,omitempty"`
	PreparePlatformCommands []string `json:"prepare-platform-commands,omitempty" yaml:"prepare-platform-commands,omitempty"`
	FinishArgs              []string `json:"finish-args,omitempty" yaml:"finish-args,omitempty"`

	RenameDesktopFile     string `json:"rename-desktop-file,omitempty" yaml:"rename-desktop-file,omitempty"`
	RenameAppdataFile     string `json:"rename-appdata-file,omitempty" yaml:"rename-appdata-file,omitempty"`
	RenameIcon            string `json:"rename-icon,omitempty" yaml:"rename-icon,omitempty"`
	AppdataLicense        string `json:"appdata-license,omitempty" yaml:"appdata-license,omitempty"`
	CopyIcon              *bool  `json:"copy-icon,omitempty" yaml:"copy-icon,omitempty"`
	DesktopFileNamePrefix string `json:"desktop-file-name-prefix,omitempty" yaml:"desktop-file-name-prefix,omitempty"`
	DesktopFileNameSuffix string `json:"desktop-file-name-suffix,omitempty" yaml:"desktop-file-name-suffix,omitempty"`

	Modules []Module `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Identifier returns the application identifier, preferring app-id over id.
func (m *Manifest) Identifier() string {
	if m.AppID != "" {
		return m.AppID
	}
	return m.ID
}

// IsExtension reports whether the manifest builds an extension.
func (m *Manifest) IsExtension() bool {
	return m.BuildExtension != nil && *m.BuildExtension
}

// Validate checks the fields every manifest must carry.
func (m *Manifest) Validate() error {
	if m.Identifier() == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "required field id (or app-id) is missing")
	}
	if m.Runtime == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "required field runtime is missing")
	}
	if m.RuntimeVersion == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "required field runtime-version is missing")
	}
	if m.Sdk == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "required field sdk is missing")
	}
	return nil
}

// Parse decodes content as a manifest, choosing the decoder from the
// extension of path, and validates the result.
func Parse(path string, content []byte) (*Manifest, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported manifest extension: %s", filepath.Base(path))
	}

	m := &Manifest{}
	if err := decode(format, content, m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode manifest %s", filepath.Base(path))
	}
	m.Format = format

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and parses the manifest at path. Files whose name does not
// follow the reverse-DNS convention are rejected without being read.
func Load(path string) (*Manifest, error) {
	if !MatchesFilename(path) {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "%s does not follow the manifest naming convention", filepath.Base(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read manifest")
	}
	return Parse(path, content)
}

// Dump serializes the manifest in the format it was parsed from.
func (m *Manifest) Dump() ([]byte, error) {
	return encode(m.Format, m)
}

// FlattenModules returns every module of the tree in pre-order: each node
// is followed by its own descendants before its next sibling.
func (m *Manifest) FlattenModules() []Module {
	var out []Module
	for _, mod := range m.Modules {
		out = append(out, mod)
		if mod.Description != nil {
			out = append(out, mod.Description.FlattenModules()...)
		}
	}
	return out
}

// ModuleDescriptions returns the inline descriptions of [Manifest.FlattenModules].
func (m *Manifest) ModuleDescriptions() []*ModuleDescription {
	var out []*ModuleDescription
	for _, mod := range m.FlattenModules() {
		if mod.Description != nil {
			out = append(out, mod.Description)
		}
	}
	return out
}

// MaxDepth returns the depth of the deepest module chain. A manifest
// without inline modules has depth 1.
func (m *Manifest) MaxDepth() int {
	depth := 1
	for _, mod := range m.Modules {
		if mod.Description == nil {
			continue
		}
		if d := mod.Description.MaxDepth(); d > depth {
			depth = d
		}
	}
	return depth
}

// AllURLs returns every source and mirror URL in the module tree.
func (m *Manifest) AllURLs() []string {
	var urls []string
	for _, mod := range m.Modules {
		urls = append(urls, mod.AllURLs()...)
	}
	return urls
}

// AllMirrorURLs returns every mirror URL in the module tree.
func (m *Manifest) AllMirrorURLs() []string {
	var urls []string
	for _, mod := range m.Modules {
		urls = append(urls, mod.AllMirrorURLs()...)
	}
	return urls
}

// MainModuleURL returns the primary URL of the last top-level module, which
// by convention builds the application itself.
func (m *Manifest) MainModuleURL() (string, bool) {
	if len(m.Modules) == 0 {
		return "", false
	}
	last := m.Modules[len(m.Modules)-1]
	if last.Description == nil {
		return "", false
	}
	return last.Description.MainURL()
}

func decode(format Format, content []byte, v any) error {
	if format == FormatJSON {
		return json.Unmarshal([]byte(StripJSONComments(string(content))), v)
	}
	return yaml.Unmarshal(content, v)
}

func encode(format Format, v any) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}
