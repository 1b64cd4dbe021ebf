package snapshot

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mediaveil/mediaveil/pkg/geometry"
)

// Tree is the nested wire form of a snapshot, used by the HTTP ingest API
// and scenario files. Visible defaults to true when omitted.
type Tree struct {
	Bounds      geometry.Rect `json:"bounds" yaml:"bounds"`
	Text        string        `json:"text,omitempty" yaml:"text,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Type        string        `json:"type,omitempty" yaml:"type,omitempty"`
	Visible     *bool         `json:"visible,omitempty" yaml:"visible,omitempty"`
	Selected    bool          `json:"selected,omitempty" yaml:"selected,omitempty"`
	Checked     bool          `json:"checked,omitempty" yaml:"checked,omitempty"`
	Activated   bool          `json:"activated,omitempty" yaml:"activated,omitempty"`
	Focused     bool          `json:"focused,omitempty" yaml:"focused,omitempty"`
	Scrollable  bool          `json:"scrollable,omitempty" yaml:"scrollable,omitempty"`
	Children    []Tree        `json:"children,omitempty" yaml:"children,omitempty"`
}

func (t *Tree) element() Element {
	visible := true
	if t.Visible != nil {
		visible = *t.Visible
	}
	return Element{
		Bounds:      t.Bounds,
		Text:        t.Text,
		Description: t.Description,
		ID:          t.ID,
		Type:        t.Type,
		Visible:     visible,
		Selected:    t.Selected,
		Checked:     t.Checked,
		Activated:   t.Activated,
		Focused:     t.Focused,
		Scrollable:  t.Scrollable,
	}
}

// FromTree materializes a nested tree. A nil root yields an empty snapshot.
func FromTree(screen Screen, root *Tree) *Snapshot {
	b := NewBuilder(screen)
	if root == nil {
		return b.Build()
	}
	type item struct {
		t      *Tree
		parent NodeID
	}
	queue := []item{{t: root, parent: NoParent}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		id := b.Add(it.parent, it.t.element())
		for i := range it.t.Children {
			queue = append(queue, item{t: &it.t.Children[i], parent: id})
		}
	}
	return b.Build()
}

// ParseTree decodes a YAML or JSON document into a Tree
func ParseTree(data []byte) (*Tree, error) {
	var t Tree
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode element tree")
	}
	return &t, nil
}
