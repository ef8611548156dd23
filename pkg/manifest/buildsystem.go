package manifest

import (
	"path/filepath"
	"strings"
)

// Build systems recognized from marker files in a repository checkout.
// These are wider than [BuildSystems]: make and cargo have no matching
// buildsystem value but still say something about the project.
const (
	MarkerMake      = "make"
	MarkerCMake     = "cmake"
	MarkerAutotools = "autotools"
	MarkerQMake     = "qmake"
	MarkerMeson     = "meson"
	MarkerCargo     = "cargo"
)

// DetectBuildSystem returns the build system implied by the file at path,
// judged from its name alone.
func DetectBuildSystem(path string) (string, bool) {
	name := filepath.Base(path)
	switch name {
	case "Makefile":
		return MarkerMake, true
	case "CMakeLists.txt":
		return MarkerCMake, true
	case "autogen.sh", "autogen", "bootstrap.sh", "bootstrap":
		return MarkerAutotools, true
	case "meson.build":
		return MarkerMeson, true
	case "Cargo.toml":
		return MarkerCargo, true
	}
	if strings.HasSuffix(name, ".pro") {
		return MarkerQMake, true
	}
	return "", false
}
