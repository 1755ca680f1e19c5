// Package config loads the host-side settings that govern a BlackLua run:
// VM resource limits from the environment (caarlos0/env/v6, the same
// library the teacher's go.mod already carries indirectly through
// mna/mainer), and the project manifest naming a program's entry file and
// externs (gopkg.in/yaml.v3), per spec.md §6's "external interfaces"
// extension.
package config

import (
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Limits holds the VM resource ceilings spec.md §9 leaves to the host to
// enforce (a malformed or adversarial program must not hang the process,
// but the exact ceiling is a host policy decision, not a language rule).
type Limits struct {
	MaxSteps     uint64 `env:"BLACKLUA_MAX_STEPS" envDefault:"100000000"`
	MaxCallDepth int    `env:"BLACKLUA_MAX_CALL_DEPTH" envDefault:"1024"`
	StackGrowth  int    `env:"BLACKLUA_STACK_GROWTH" envDefault:"4096"`
}

// LoadLimits reads Limits from the environment, applying envDefault for
// anything unset.
func LoadLimits() (Limits, error) {
	var l Limits
	if err := env.Parse(&l); err != nil {
		return Limits{}, err
	}
	return l, nil
}

// Manifest is a blacklua.yaml project file: the entry source file to
// compile and run, the externs a host must bind before calling it, and
// this project's resource limit overrides.
type Manifest struct {
	Entry   string   `yaml:"entry"`
	Externs []string `yaml:"externs"`
	Limits  Limits   `yaml:"limits"`
}

// LoadManifest reads and parses a blacklua.yaml manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := env.Parse(&m.Limits); err != nil {
		return nil, err
	}
	return &m, nil
}
