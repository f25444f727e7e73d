// Package shader turns vertex/fragment texts into compilable sources. The
// fragment text is a text/template that must reference two named slots:
// {{.Activation}} receives the activation expression and {{.Persistence}}
// receives the trailing-mode block, empty when persistence is off.
package shader

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"

	"convca/internal/gpu"
)

const (
	SlotActivation  = "Activation"
	SlotPersistence = "Persistence"
)

// DefaultActivation forwards the convolution sum unchanged.
const DefaultActivation = "x"

// PersistenceDecay is how much of the previous value survives per tick in
// trailing mode.
const PersistenceDecay = 0.03

// ErrMissingSlot reports a fragment template without a required slot.
var ErrMissingSlot = errors.New("shader: template slot missing")

// Template is a parsed vertex/fragment pair.
type Template struct {
	vertex   string
	fragment *template.Template
}

type slots struct {
	Activation  string
	Persistence string
}

// Parse validates the fragment template and records the vertex text.
func Parse(vertex, fragment string) (*Template, error) {
	tmpl, err := template.New("fragment").Parse(fragment)
	if err != nil {
		return nil, fmt.Errorf("shader: parse fragment: %w", err)
	}
	found := map[string]bool{}
	if tmpl.Tree != nil {
		collectFields(tmpl.Tree.Root, found)
	}
	var missing []string
	for _, slot := range []string{SlotActivation, SlotPersistence} {
		if !found[slot] {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSlot, strings.Join(missing, ", "))
	}
	return &Template{vertex: vertex, fragment: tmpl}, nil
}

// Vertex returns the vertex text.
func (t *Template) Vertex() string { return t.vertex }

// Render fills both slots. An empty activation falls back to
// DefaultActivation.
func (t *Template) Render(activation string, persistent bool) (gpu.Source, error) {
	activation = strings.TrimSpace(activation)
	if activation == "" {
		activation = DefaultActivation
	}
	data := slots{Activation: activation}
	if persistent {
		data.Persistence = PersistenceBlock()
	}
	var sb strings.Builder
	if err := t.fragment.Execute(&sb, data); err != nil {
		return gpu.Source{}, fmt.Errorf("shader: render fragment: %w", err)
	}
	return gpu.Source{
		Vertex:     t.vertex,
		Fragment:   sb.String(),
		Activation: activation,
		Persistent: persistent,
	}, nil
}

// PersistenceBlock is the statement spliced into the update branch when
// trailing mode is on. It reads the previous cell value prev and the newly
// computed value v.
func PersistenceBlock() string {
	return fmt.Sprintf("v = max(v, prev-%.3f)", PersistenceDecay)
}

func collectFields(node parse.Node, found map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, found)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, found)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, found)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, found)
		}
	case *parse.FieldNode:
		if len(n.Ident) == 1 {
			found[n.Ident[0]] = true
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, found)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, found)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, found)
	}
}

func collectBranch(b *parse.BranchNode, found map[string]bool) {
	collectFields(b.Pipe, found)
	collectFields(b.List, found)
	collectFields(b.ElseList, found)
}
