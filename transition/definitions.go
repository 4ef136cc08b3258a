package transition

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Definitions declares a set of string-state transitions in YAML:
//
//	name: switch
//	defaultState: "off"
//	transitions:
//	  - name: "on"
//	    from: "off"
//	    to: "on"
//	    before: record
//	  - name: "off"
//	    from: ["on"]
//	    to: "off"
//	    guard: not_always_on
//	  - name: reset
//	    any: true
//	    to: "off"
//
// Guard, hook and action fields are names looked up in a Registry by Build.
type Definitions struct {
	Name         string                 `json:"name"         yaml:"name"`
	DefaultState string                 `json:"defaultState" yaml:"defaultState"`
	Transitions  []TransitionDefinition `json:"transitions"  yaml:"transitions"`
}

// TransitionDefinition declares one transition.
type TransitionDefinition struct {
	Name   string    `json:"name"   yaml:"name"`
	From   StateList `json:"from"   yaml:"from"`
	Any    bool      `json:"any"    yaml:"any"`
	To     string    `json:"to"     yaml:"to"`
	Guard  string    `json:"guard"  yaml:"guard"`
	Enter  string    `json:"enter"  yaml:"enter"`
	Exit   string    `json:"exit"   yaml:"exit"`
	Before string    `json:"before" yaml:"before"`
	After  string    `json:"after"  yaml:"after"`
	Action string    `json:"action" yaml:"action"`
}

// StateList is a list of states that also accepts a single scalar in YAML.
type StateList []string

// UnmarshalYAML accepts either `from: a` or `from: [a, b]`.
func (l *StateList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = StateList{value.Value}

		return nil
	}

	var states []string
	if err := value.Decode(&states); err != nil {
		return fmt.Errorf("failed to decode state list: %w", err)
	}

	*l = states

	return nil
}

// LoadDefinitions loads transition definitions from a YAML file.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file %q: %w", path, err)
	}

	return LoadDefinitionsFromBytes(data)
}

// LoadDefinitionsFromFS loads definitions from a filesystem such as embed.FS.
func LoadDefinitionsFromFS(fsys fs.FS, path string) (*Definitions, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions from FS: %w", err)
	}

	return LoadDefinitionsFromBytes(data)
}

// LoadDefinitionsFromBytes parses and validates YAML definitions.
func LoadDefinitionsFromBytes(data []byte) (*Definitions, error) {
	var defs Definitions

	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := defs.Validate(); err != nil {
		return nil, err
	}

	return &defs, nil
}

// Validate checks that the definitions are structurally complete. It does
// not analyze which states are reachable.
func (d *Definitions) Validate() error {
	if d.Name == "" {
		return ErrDefinitionNameRequired
	}

	names := make(map[string]bool, len(d.Transitions))

	for i, td := range d.Transitions {
		if td.Name == "" {
			return fmt.Errorf("transition %d: %w", i, ErrTransitionNameRequired)
		}

		if names[td.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTransition, td.Name)
		}

		names[td.Name] = true

		if td.To == "" {
			return fmt.Errorf("transition %s: %w", td.Name, ErrTransitionTargetRequired)
		}

		if td.Any && len(td.From) > 0 {
			return fmt.Errorf("transition %s: %w", td.Name, ErrTransitionSourcesConflict)
		}
	}

	return nil
}

// Sources returns the Sources a definition describes. A definition that
// sets any, or lists no from states, is unconstrained.
func (td TransitionDefinition) Sources() Sources[string] {
	if td.Any || len(td.From) == 0 {
		return Any[string]()
	}

	return From([]string(td.From)...)
}

// Build resolves every definition against reg and returns the specs keyed
// by transition name.
func (d *Definitions) Build(reg *Registry[string]) (map[string]*Spec[string], error) {
	if reg == nil {
		reg = NewRegistry[string]()
	}

	specs := make(map[string]*Spec[string], len(d.Transitions))

	for _, td := range d.Transitions {
		spec, err := td.build(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to build transition %s: %w", td.Name, err)
		}

		specs[td.Name] = spec
	}

	return specs, nil
}

// ExecutorOptions returns the options implied by the definitions, currently
// the default state.
func (d *Definitions) ExecutorOptions() []Option[string] {
	return []Option[string]{WithDefaultState(d.DefaultState)}
}

func (td TransitionDefinition) build(reg *Registry[string]) (*Spec[string], error) {
	guard, err := reg.Guard(td.Guard)
	if err != nil {
		return nil, err
	}

	action, err := reg.Action(td.Action)
	if err != nil {
		return nil, err
	}

	refs := []struct {
		field string
		name  string
	}{
		{"enter", td.Enter},
		{"exit", td.Exit},
		{"before", td.Before},
		{"after", td.After},
	}

	hooks := make(map[string]Hook[string], len(refs))

	for _, ref := range refs {
		hook, err := reg.Hook(ref.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.field, err)
		}

		hooks[ref.field] = hook
	}

	return New(td.Sources(), td.To).
		WithName(td.Name).
		WithGuard(guard).
		WithEnter(hooks["enter"]).
		WithExit(hooks["exit"]).
		WithBefore(hooks["before"]).
		WithAfter(hooks["after"]).
		WithAction(action), nil
}
