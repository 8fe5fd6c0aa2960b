package hierarchy

import (
	"time"

	"github.com/fieldline/sitebook/internal/jsonval"
)

// NodeType identifies leaf nodes in the tree.
type NodeType string

const TypeProject NodeType = "project"

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	StatusOngoing   ProjectStatus = "ongoing"
	StatusCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted
}

// Tree is the ordered project catalog: main folders, sub folders, projects.
type Tree []MainNode

// MainNode is a top-level folder, usually a region or business unit.
type MainNode struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Children []SubNode `json:"children" yaml:"children"`
}

// SubNode groups projects under a main folder.
type SubNode struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Children []ProjectNode `json:"children" yaml:"children"`
}

// ProjectNode is a single construction project. ID is the project number
// and is unique across the whole tree.
type ProjectNode struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Type       NodeType       `json:"type" yaml:"type"`
	Status     ProjectStatus  `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" yaml:"createdAt"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Clone deep-copies the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, main := range t {
		out[i] = main.clone()
	}
	return out
}

func (m MainNode) clone() MainNode {
	out := m
	if m.Children != nil {
		out.Children = make([]SubNode, len(m.Children))
		for i, sub := range m.Children {
			out.Children[i] = sub.clone()
		}
	}
	return out
}

func (s SubNode) clone() SubNode {
	out := s
	if s.Children != nil {
		out.Children = make([]ProjectNode, len(s.Children))
		for i, p := range s.Children {
			out.Children[i] = p.Clone()
		}
	}
	return out
}

// Clone deep-copies the project, including its attributes.
func (p ProjectNode) Clone() ProjectNode {
	out := p
	out.Attributes = jsonval.CloneMap(p.Attributes)
	return out
}

// ProjectLocation addresses a project inside the tree.
type ProjectLocation struct {
	MainID  string      `json:"main_id"`
	SubID   string      `json:"sub_id"`
	Project ProjectNode `json:"project"`
}

// Catalog is a stored tree with its optimistic concurrency version.
type Catalog struct {
	ID      string `json:"id"`
	Tree    Tree   `json:"tree"`
	Version int64  `json:"version"`
}
