package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flatmine/pkg/errors"
)

// Build systems a module may declare with the buildsystem field.
const (
	BuildSystemAutotools  = "autotools"
	BuildSystemCMake      = "cmake"
	BuildSystemCMakeNinja = "cmake-ninja"
	BuildSystemMeson      = "meson"
	BuildSystemSimple     = "simple"
	BuildSystemQMake      = "qmake"
)

// BuildSystems lists the build systems flatpak-builder understands.
var BuildSystems = []string{
	BuildSystemAutotools,
	BuildSystemCMake,
	BuildSystemCMakeNinja,
	BuildSystemMeson,
	BuildSystemSimple,
	BuildSystemQMake,
}

// Module is either a Reference to a separate module file or an inline
// Description. Exactly one of the two is set.
type Module struct {
	Reference   string
	Description *ModuleDescription
}

// IsReference reports whether the module points to another file.
func (m Module) IsReference() bool {
	return m.Description == nil
}

// Name returns the module name, or the referenced path.
func (m Module) Name() string {
	if m.Description != nil {
		return m.Description.Name
	}
	return m.Reference
}

// AllURLs returns every URL of the module and its descendants.
func (m Module) AllURLs() []string {
	if m.Description == nil {
		return nil
	}
	return m.Description.AllURLs()
}

// AllMirrorURLs returns every mirror URL of the module and its descendants.
func (m Module) AllMirrorURLs() []string {
	if m.Description == nil {
		return nil
	}
	return m.Description.AllMirrorURLs()
}

// SourcesCount returns the number of sources. A reference counts as one.
func (m Module) SourcesCount() int {
	if m.Description == nil {
		return 1
	}
	return len(m.Description.Sources)
}

// IsPatched reports whether any source of the module is a patch.
func (m Module) IsPatched() bool {
	return m.Description != nil && m.Description.IsPatched()
}

// UnmarshalJSON decodes an inline description, falling back to a path.
func (m *Module) UnmarshalJSON(data []byte) error {
	var d ModuleDescription
	if err := json.Unmarshal(data, &d); err == nil {
		*m = Module{Description: &d}
		return nil
	}
	var ref string
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("module is neither a description nor a path: %w", err)
	}
	*m = Module{Reference: ref}
	return nil
}

// MarshalJSON encodes the variant that is set.
func (m Module) MarshalJSON() ([]byte, error) {
	if m.Description != nil {
		return json.Marshal(m.Description)
	}
	return json.Marshal(m.Reference)
}

// UnmarshalYAML decodes an inline description, falling back to a path.
func (m *Module) UnmarshalYAML(value *yaml.Node) error {
	var d ModuleDescription
	if err := value.Decode(&d); err == nil {
		*m = Module{Description: &d}
		return nil
	}
	var ref string
	if err := value.Decode(&ref); err != nil {
		return fmt.Errorf("line %d: module is neither a description nor a path: %w", value.Line, err)
	}
	*m = Module{Reference: ref}
	return nil
}

// MarshalYAML encodes the variant that is set.
func (m Module) MarshalYAML() (any, error) {
	if m.Description != nil {
		return m.Description, nil
	}
	return m.Reference, nil
}

// ModuleDescription is an inline module: a buildable unit with its sources
// and nested child modules.
type ModuleDescription struct {
	Name     string   `json:"name" yaml:"name"`
	Disabled *bool    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Sources  []Source `json:"sources,omitempty" yaml:"sources,omitempty"`

	ConfigOpts           []string `json:"config-opts,omitempty" yaml:"config-opts,omitempty"`
	MakeArgs             []string `json:"make-args,omitempty" yaml:"make-args,omitempty"`
	MakeInstallArgs      []string `json:"make-install-args,omitempty" yaml:"make-install-args,omitempty"`
	RmConfigure          *bool    `json:"rm-configure,omitempty" yaml:"rm-configure,omitempty"`
	NoAutogen            *bool    `json:"no-autogen,omitempty" yaml:"no-autogen,omitempty"`
	NoParallelMake       *bool    `json:"no-parallel-make,omitempty" yaml:"no-parallel-make,omitempty"`
	InstallRule          string   `json:"install-rule,omitempty" yaml:"install-rule,omitempty"`
	NoMakeInstall        *bool    `json:"no-make-install,omitempty" yaml:"no-make-install,omitempty"`
	NoPythonTimestampFix *bool    `json:"no-python-timestamp-fix,omitempty" yaml:"no-python-timestamp-fix,omitempty"`
	CMake                *bool    `json:"cmake,omitempty" yaml:"cmake,omitempty"`
	Buildsystem          string   `json:"buildsystem,omitempty" yaml:"buildsystem,omitempty"`
	Builddir             *bool    `json:"builddir,omitempty" yaml:"builddir,omitempty"`
	Subdir               string   `json:"subdir,omitempty" yaml:"subdir,omitempty"`

	BuildOptions  *BuildOptions `json:"build-options,omitempty" yaml:"build-options,omitempty"`
	BuildCommands []string      `json:"build-commands,omitempty" yaml:"build-commands,omitempty"`
	PostInstall   []string      `json:"post-install,omitempty" yaml:"post-install,omitempty"`

	Cleanup         []string `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	EnsureWritable  []string `json:"ensure-writable,omitempty" yaml:"ensure-writable,omitempty"`
	OnlyArches      []string `json:"only-arches,omitempty" yaml:"only-arches,omitempty"`
	SkipArches      []string `json:"skip-arches,omitempty" yaml:"skip-arches,omitempty"`
	CleanupPlatform []string `json:"cleanup-platform,omitempty" yaml:"cleanup-platform,omitempty"`

	RunTests     *bool    `json:"run-tests,omitempty" yaml:"run-tests,omitempty"`
	TestRule     string   `json:"test-rule,omitempty" yaml:"test-rule,omitempty"`
	TestCommands []string `json:"test-commands,omitempty" yaml:"test-commands,omitempty"`

	Modules []Module `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Validate checks the fields a standalone module file must carry.
func (d *ModuleDescription) Validate() error {
	if d.Name == "" {
		return errors.New(errors.ErrCodeInvalidModule, "required field name is missing")
	}
	if len(d.Sources) == 0 {
		return errors.New(errors.ErrCodeInvalidModule, "module %s has no sources", d.Name)
	}
	return nil
}

// BuildSystem returns the declared build system. The legacy cmake flag maps
// to "cmake"; an empty string means unspecified.
func (d *ModuleDescription) BuildSystem() string {
	if d.Buildsystem != "" {
		return d.Buildsystem
	}
	if d.CMake != nil && *d.CMake {
		return BuildSystemCMake
	}
	return ""
}

// FlattenModules returns the descendants of d in pre-order.
func (d *ModuleDescription) FlattenModules() []Module {
	var out []Module
	for _, child := range d.Modules {
		out = append(out, child)
		if child.Description != nil {
			out = append(out, child.Description.FlattenModules()...)
		}
	}
	return out
}

// MaxDepth returns 1 plus the depth of the deepest child.
func (d *ModuleDescription) MaxDepth() int {
	deepest := 0
	for _, child := range d.Modules {
		if child.Description == nil {
			continue
		}
		if depth := child.Description.MaxDepth(); depth > deepest {
			deepest = depth
		}
	}
	return deepest + 1
}

// AllURLs returns the primary and mirror URLs of every source of d and its
// descendants.
func (d *ModuleDescription) AllURLs() []string {
	var urls []string
	for _, src := range d.Sources {
		urls = append(urls, src.AllURLs()...)
	}
	for _, child := range d.Modules {
		urls = append(urls, child.AllURLs()...)
	}
	return urls
}

// AllMirrorURLs returns the mirror URLs of every source of d and its
// descendants.
func (d *ModuleDescription) AllMirrorURLs() []string {
	var urls []string
	for _, src := range d.Sources {
		urls = append(urls, src.MirrorURLs()...)
	}
	for _, child := range d.Modules {
		urls = append(urls, child.AllMirrorURLs()...)
	}
	return urls
}

// ArchiveURLs returns the primary URLs of the archive sources of d,
// including sources without a type.
func (d *ModuleDescription) ArchiveURLs() []string {
	var urls []string
	for _, src := range d.Sources {
		if src.Description == nil || src.Kind() != SourceArchive || src.Description.URL == "" {
			continue
		}
		urls = append(urls, src.Description.URL)
	}
	return urls
}

// GitURLs returns the primary URLs of the git sources of d. Local
// file:/// URLs are skipped.
func (d *ModuleDescription) GitURLs() []string {
	var urls []string
	for _, src := range d.Sources {
		if src.Description == nil || src.KindName() != SourceGit {
			continue
		}
		u := src.Description.URL
		if u == "" || hasPrefixFold(u, "file:///") {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// MainURL returns the URL of the first source, which by convention is the
// project itself; later sources are patches or extra files.
func (d *ModuleDescription) MainURL() (string, bool) {
	if len(d.Sources) == 0 {
		return "", false
	}
	return d.Sources[0].URL()
}

// IsPatched reports whether any source of d is a patch.
func (d *ModuleDescription) IsPatched() bool {
	for _, src := range d.Sources {
		if src.Description != nil && src.Description.Type == SourcePatch {
			return true
		}
	}
	return false
}

// ParseModule decodes a standalone module file and validates it.
func ParseModule(path string, content []byte) (*ModuleDescription, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported module extension: %s", filepath.Base(path))
	}

	d := &ModuleDescription{}
	if err := decode(format, content, d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode module %s", filepath.Base(path))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadModule reads and parses the module file at path. Only YAML and JSON
// files are attempted.
func LoadModule(path string) (*ModuleDescription, error) {
	if !MatchesExtension(path) {
		return nil, errors.New(errors.ErrCodeInvalidModule, "%s is not a yaml or json file", filepath.Base(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read module")
	}
	return ParseModule(path, content)
}
