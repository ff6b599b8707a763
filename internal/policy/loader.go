package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidahmann/provenant/pkg/types"
)

type policyFile struct {
	Policies []types.VetoPolicy `yaml:"policies"`
}

// LoadFile reads a YAML policy set and registers every policy. The file is
// validated as a whole: one bad policy rejects the load.
func (r *Registry) LoadFile(path string) ([]types.VetoPolicy, error) {
	// #nosec G304 -- path comes from operator-configured policy path.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	for i, p := range f.Policies {
		if err := validatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, p.Name, err)
		}
	}

	loaded := make([]types.VetoPolicy, 0, len(f.Policies))
	for _, p := range f.Policies {
		added, err := r.Add(p)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, added)
	}
	return loaded, nil
}

func validatePolicy(p types.VetoPolicy) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(p.TriggerConditions) == 0 {
		return fmt.Errorf("%w: at least one trigger condition is required", ErrValidation)
	}
	for i, cond := range p.TriggerConditions {
		if err := validateTrigger(cond); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	return nil
}
