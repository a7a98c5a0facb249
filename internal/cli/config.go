package cli

import (
	"github.com/BurntSushi/toml"
)

// RunConfig is the optional TOML file given with --config-file. Flags override it.
//
//	fixtures = ["test/test_parameters.conf"]
//	backends = ["sqlite"]
//	parallelism = 4
//	format = "json"
type RunConfig struct {
	Fixtures    []string `toml:"fixtures"`
	Backends    []string `toml:"backends"`
	Parallelism int      `toml:"parallelism"`
	Format      string   `toml:"format"`
}

// LoadRunConfig decodes the file at path.
func LoadRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return RunConfig{}, configError("reading "+path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return RunConfig{}, configError("unknown key "+undecoded[0].String()+" in "+path, nil)
	}

	return cfg, nil
}
