package catalog

import (
	"encoding/json"

	"github.com/matzehuels/flatmine/pkg/cache"
	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/manifest"
)

// ModuleRecord is a stored module, addressed by the hash of its content.
type ModuleRecord struct {
	Hash   string                      `yaml:"hash"`
	Module *manifest.ModuleDescription `yaml:"module"`
}

// ModuleHash returns the content hash of d: the SHA-256 of its JSON
// encoding. Field order follows the struct and list order is kept, so two
// modules differing only in the order of their sources hash differently.
func ModuleHash(d *manifest.ModuleDescription) (string, error) {
	if d == nil {
		return "", errors.New(errors.ErrCodeInvalidModule, "module is nil")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode module %s", d.Name)
	}
	return cache.Hash(data), nil
}
