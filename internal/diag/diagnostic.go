package diag

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// Category identifies where a diagnostic came from.
type Category string

// Well-known categories.
const (
	CategorySyntax     Category = "syntax"
	CategorySemantic   Category = "semantic"
	CategoryModule     Category = "module"
	CategoryLint       Category = "lint"
	CategoryCompliance Category = "compliance"
	CategoryEvaluator  Category = "evaluator"
	CategoryValidator  Category = "validator"
)

// SeverityRule replaces the max-of-children severity of a composite node.
//
// Implementations must be pure functions of the node they are attached to.
type SeverityRule interface {
	Severity(d *Diagnostic) Severity
}

// Diagnostic is a node in a diagnostic tree.
//
// A leaf carries an explicit severity. A composite derives its severity from
// its children on every read unless a SeverityRule is attached. Nodes are not
// modified once they have been handed to the selector.
type Diagnostic struct {
	// Category identifies the origin of the diagnostic.
	Category Category

	// Message is the human-readable text.
	Message string

	// Location is where the problem was found (optional).
	Location Location

	severity  Severity
	composite bool
	rule      SeverityRule
	children  []*Diagnostic
}

// New creates a leaf diagnostic without a location.
func New(severity Severity, category Category, message string) *Diagnostic {
	return &Diagnostic{
		Category: category,
		Message:  message,
		severity: severity,
	}
}

// NewAt creates a leaf diagnostic at loc.
func NewAt(severity Severity, category Category, message string, loc Location) *Diagnostic {
	d := New(severity, category, message)
	d.Location = loc
	return d
}

// NewComposite creates a composite node holding children in order.
func NewComposite(category Category, message string, children ...*Diagnostic) *Diagnostic {
	return &Diagnostic{
		Category:  category,
		Message:   message,
		composite: true,
		children:  slices.Clone(children),
	}
}

// NewCompositeWithRule creates a composite node whose severity is computed by rule.
func NewCompositeWithRule(category Category, message string, rule SeverityRule, children ...*Diagnostic) *Diagnostic {
	d := NewComposite(category, message, children...)
	d.rule = rule
	return d
}

// IsComposite reports whether d aggregates children.
func (d *Diagnostic) IsComposite() bool {
	return d.composite
}

// Children returns a copy of the ordered children.
func (d *Diagnostic) Children() []*Diagnostic {
	return slices.Clone(d.children)
}

// Len returns the number of direct children.
func (d *Diagnostic) Len() int {
	return len(d.children)
}

// All iterates over direct children in order.
func (d *Diagnostic) All() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		for _, c := range d.children {
			if !yield(c) {
				return
			}
		}
	}
}

// Severity returns the severity of the node.
func (d *Diagnostic) Severity() Severity {
	if d.rule != nil {
		return d.rule.Severity(d)
	}
	if !d.composite {
		return d.severity
	}
	return MaxSeverity(d.children)
}

// MaxSeverity returns the highest severity among ds, or OK when ds is empty.
func MaxSeverity(ds []*Diagnostic) Severity {
	sev := SeverityOK
	for _, c := range ds {
		sev = Max(sev, c.Severity())
	}
	return sev
}

// Flatten returns a depth-first sequence of the leaves below d.
// A node with no children yields nothing.
func (d *Diagnostic) Flatten() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		flatten(d.children, yield)
	}
}

func flatten(ds []*Diagnostic, yield func(*Diagnostic) bool) bool {
	for _, c := range ds {
		if len(c.children) == 0 {
			if !yield(c) {
				return false
			}
			continue
		}
		if !flatten(c.children, yield) {
			return false
		}
	}
	return true
}

// Key identifies "the same issue" across compliance levels.
type Key struct {
	Severity Severity
	Category Category
	Message  string
	Location Location
}

// Key returns the comparison key of d.
func (d *Diagnostic) Key() Key {
	return Key{
		Severity: d.Severity(),
		Category: d.Category,
		Message:  d.Message,
		Location: d.Location,
	}
}

// String renders the key as "SEVERITY category: message (file:line)".
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(k.Severity.String()))
	if k.Category != "" {
		b.WriteByte(' ')
		b.WriteString(string(k.Category))
	}
	b.WriteString(": ")
	b.WriteString(k.Message)
	if loc := k.Location.String(); loc != "" {
		b.WriteString(" (")
		b.WriteString(loc)
		b.WriteByte(')')
	}
	return b.String()
}

// String renders the diagnostic on a single line.
func (d *Diagnostic) String() string {
	return d.Key().String()
}

// WithChildren returns a shallow copy of d holding the given children.
// The copy keeps the category, message, location and severity rule of d.
func (d *Diagnostic) WithChildren(children []*Diagnostic) *Diagnostic {
	c := *d
	c.composite = true
	c.children = slices.Clone(children)
	return &c
}

// WithLocation returns a copy of d at loc.
func (d *Diagnostic) WithLocation(loc Location) *Diagnostic {
	c := *d
	c.Location = loc
	return &c
}

// WithSeverity returns a copy of the leaf d with severity sev.
// Composite nodes are returned unchanged.
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	if d.composite {
		return d
	}
	c := *d
	c.severity = sev
	return &c
}

type jsonDiagnostic struct {
	Severity Severity      `json:"severity"`
	Category Category      `json:"category,omitempty"`
	Message  string        `json:"message"`
	Location *Location     `json:"location,omitempty"`
	Children []*Diagnostic `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *Diagnostic) MarshalJSON() ([]byte, error) {
	out := jsonDiagnostic{
		Severity: d.Severity(),
		Category: d.Category,
		Message:  d.Message,
		Children: d.children,
	}
	if !d.Location.IsZero() {
		loc := d.Location
		out.Location = &loc
	}
	return json.Marshal(out)
}
