// Package manifest models Flatpak manifests as Go values.
//
// # Overview
//
// A [Manifest] describes one application: its identifier, the runtime and
// SDK it builds against, and an ordered tree of [Module] nodes. Each module
// is either a reference to a separate module file or an inline
// [ModuleDescription] carrying [Source] leaves and nested child modules.
// Sources follow the same pattern: a path reference or an inline
// [SourceDescription].
//
// # Parsing
//
// [Parse] selects a decoder from the file extension. YAML files are decoded
// with gopkg.in/yaml.v3; JSON files have their /* */ comments stripped by
// [StripJSONComments] before decoding. After decoding, the required fields
// (id or app-id, runtime, runtime-version, sdk) are checked. A failed check
// returns an INVALID_MANIFEST error naming the missing field: callers treat
// it as "not a manifest", not as a crawl failure.
//
// Only files whose name follows the reverse-DNS convention are ever
// attempted as manifests, see [MatchesFilename]. [Load] applies that gate
// before reading the file.
//
// # Traversal
//
//	m, err := manifest.Parse("org.gnome.Lollypop.json", content)
//	for _, mod := range m.FlattenModules() {
//	    fmt.Println(mod.Name())
//	}
//	fmt.Println(m.MaxDepth(), len(m.AllURLs()))
//
// # Serialization
//
// [Manifest.Dump] writes the manifest back in the format it was parsed
// from. Field names are kebab-case and empty fields are omitted, so a
// parse, dump, parse cycle yields an equal value.
package manifest
