// Package visualizer renders transitions as Mermaid state diagrams.
//
// It draws one edge per (source, target) pair. Transitions with unconstrained
// sources are drawn from every state that appears anywhere in the input. The
// output is for documentation; nothing is checked about the shape of the
// graph.
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-transition/transition"
)

// Visualizer errors.
var (
	ErrNoTransitions  = errors.New("no transitions to render")
	ErrDefinitionsNil = errors.New("definitions cannot be nil")
)

// edge is one rendered arrow. from == "" means any state.
type edge struct {
	from  string
	to    string
	name  string
	guard string
}

// GenerateMermaid renders specs with DefaultOptions.
func GenerateMermaid[S comparable](specs ...*transition.Spec[S]) (string, error) {
	return GenerateMermaidWithOptions(DefaultOptions(), specs...)
}

// GenerateMermaidWithOptions renders specs with custom options.
func GenerateMermaidWithOptions[S comparable](opts Options, specs ...*transition.Spec[S]) (string, error) {
	var edges []edge

	for _, spec := range specs {
		if spec == nil {
			continue
		}

		guard := ""
		if spec.HasGuard() {
			guard = "guarded"
		}

		to := fmt.Sprint(spec.Target())

		if spec.Sources().IsAny() {
			edges = append(edges, edge{to: to, name: spec.Name(), guard: guard})

			continue
		}

		for _, from := range spec.Sources().States() {
			edges = append(edges, edge{from: fmt.Sprint(from), to: to, name: spec.Name(), guard: guard})
		}
	}

	return render(edges, opts)
}

// GenerateMermaidFromDefinitions renders YAML definitions. The definitions'
// default state becomes the start marker unless opts sets one.
func GenerateMermaidFromDefinitions(defs *transition.Definitions, opts Options) (string, error) {
	if defs == nil {
		return "", ErrDefinitionsNil
	}

	if opts.InitialState == "" {
		opts.InitialState = defs.DefaultState
	}

	var edges []edge

	for _, td := range defs.Transitions {
		if td.Sources().IsAny() {
			edges = append(edges, edge{to: td.To, name: td.Name, guard: td.Guard})

			continue
		}

		for _, from := range td.From {
			edges = append(edges, edge{from: from, to: td.To, name: td.Name, guard: td.Guard})
		}
	}

	return render(edges, opts)
}

func render(edges []edge, opts Options) (string, error) {
	if len(edges) == 0 {
		return "", ErrNoTransitions
	}

	states := collectStates(edges, opts.InitialState)

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		sb.WriteString(fmt.Sprintf("    direction %s\n", opts.Direction))
	}

	if opts.InitialState != "" {
		sb.WriteString(fmt.Sprintf("    [*] --> %s\n", stateID(opts.InitialState)))
	}

	for _, e := range edges {
		label := edgeLabel(e, opts)

		sources := []string{e.from}
		if e.from == "" {
			sources = states
		}

		for _, from := range sources {
			sb.WriteString(fmt.Sprintf("    %s --> %s%s\n", stateID(from), stateID(e.to), label))
		}
	}

	highlighted := false

	for _, state := range opts.HighlightStates {
		sb.WriteString(fmt.Sprintf("    class %s highlighted\n", stateID(state)))

		highlighted = true
	}

	if highlighted {
		sb.WriteString("\n")
		sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	}

	sb.WriteString("```\n")

	return sb.String(), nil
}

// collectStates returns every named state in natural sort order.
func collectStates(edges []edge, initial string) []string {
	seen := make(map[string]bool)

	var states []string

	add := func(state string) {
		if state == "" || seen[state] {
			return
		}

		seen[state] = true
		states = append(states, state)
	}

	add(initial)

	for _, e := range edges {
		add(e.from)
		add(e.to)
	}

	natsort.Sort(states)

	return states
}

func edgeLabel(e edge, opts Options) string {
	var parts []string

	if opts.ShowNames && e.name != "" {
		parts = append(parts, e.name)
	}

	if opts.ShowGuards && e.guard != "" {
		parts = append(parts, "["+e.guard+"]")
	}

	if len(parts) == 0 {
		return ""
	}

	return ": " + strings.Join(parts, " ")
}

// stateID makes a state usable as a Mermaid identifier.
func stateID(state string) string {
	return strings.NewReplacer(" ", "_", "-", "_", ":", "_").Replace(state)
}
