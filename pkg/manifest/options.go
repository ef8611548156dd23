package manifest

// BuildOptions are the build-options of a manifest or module.
type BuildOptions struct {
	CFlags           string `json:"cflags,omitempty" yaml:"cflags,omitempty"`
	CFlagsOverride   *bool  `json:"cflags-override,omitempty" yaml:"cflags-override,omitempty"`
	CPPFlags         string `json:"cppflags,omitempty" yaml:"cppflags,omitempty"`
	CPPFlagsOverride *bool  `json:"cppflags-override,omitempty" yaml:"cppflags-override,omitempty"`
	CXXFlags         string `json:"cxxflags,omitempty" yaml:"cxxflags,omitempty"`
	CXXFlagsOverride *bool  `json:"cxxflags-override,omitempty" yaml:"cxxflags-override,omitempty"`
	LDFlags          string `json:"ldflags,omitempty" yaml:"ldflags,omitempty"`
	LDFlagsOverride  *bool  `json:"ldflags-override,omitempty" yaml:"ldflags-override,omitempty"`

	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Libdir string `json:"libdir,omitempty" yaml:"libdir,omitempty"`

	AppendPath           string `json:"append-path,omitempty" yaml:"append-path,omitempty"`
	PrependPath          string `json:"prepend-path,omitempty" yaml:"prepend-path,omitempty"`
	AppendLDLibraryPath  string `json:"append-ld-library-path,omitempty" yaml:"append-ld-library-path,omitempty"`
	PrependLDLibraryPath string `json:"prepend-ld-library-path,omitempty" yaml:"prepend-ld-library-path,omitempty"`
	AppendPkgConfigPath  string `json:"append-pkg-config-path,omitempty" yaml:"append-pkg-config-path,omitempty"`
	PrependPkgConfigPath string `json:"prepend-pkg-config-path,omitempty" yaml:"prepend-pkg-config-path,omitempty"`

	Env                    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	BuildArgs              []string          `json:"build-args,omitempty" yaml:"build-args,omitempty"`
	TestArgs               []string          `json:"test-args,omitempty" yaml:"test-args,omitempty"`
	ConfigOpts             []string          `json:"config-opts,omitempty" yaml:"config-opts,omitempty"`
	MakeArgs               []string          `json:"make-args,omitempty" yaml:"make-args,omitempty"`
	MakeInstallArgs        []string          `json:"make-install-args,omitempty" yaml:"make-install-args,omitempty"`
	Strip                  *bool             `json:"strip,omitempty" yaml:"strip,omitempty"`
	NoDebuginfo            *bool             `json:"no-debuginfo,omitempty" yaml:"no-debuginfo,omitempty"`
	NoDebuginfoCompression *bool             `json:"no-debuginfo-compression,omitempty" yaml:"no-debuginfo-compression,omitempty"`

	// Arch holds per-architecture overrides keyed by architecture name.
	Arch map[string]*BuildOptions `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// Extension is an extension point declared in add-extensions or
// add-build-extensions.
type Extension struct {
	Directory          string `json:"directory,omitempty" yaml:"directory,omitempty"`
	Bundle             *bool  `json:"bundle,omitempty" yaml:"bundle,omitempty"`
	RemoveAfterBuild   *bool  `json:"remove-after-build,omitempty" yaml:"remove-after-build,omitempty"`
	Autodelete         *bool  `json:"autodelete,omitempty" yaml:"autodelete,omitempty"`
	NoAutodownload     *bool  `json:"no-autodownload,omitempty" yaml:"no-autodownload,omitempty"`
	Subdirectories     *bool  `json:"subdirectories,omitempty" yaml:"subdirectories,omitempty"`
	AddLDPath          string `json:"add-ld-path,omitempty" yaml:"add-ld-path,omitempty"`
	DownloadIf         string `json:"download-if,omitempty" yaml:"download-if,omitempty"`
	EnableIf           string `json:"enable-if,omitempty" yaml:"enable-if,omitempty"`
	MergeDirs          string `json:"merge-dirs,omitempty" yaml:"merge-dirs,omitempty"`
	SubdirectorySuffix string `json:"subdirectory-suffix,omitempty" yaml:"subdirectory-suffix,omitempty"`
	LocaleSubset       *bool  `json:"locale-subset,omitempty" yaml:"locale-subset,omitempty"`
	Version            string `json:"version,omitempty" yaml:"version,omitempty"`
	Versions           string `json:"versions,omitempty" yaml:"versions,omitempty"`
}
