package hierarchy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The operations below never modify the tree they are given. On success they
// return a new tree with exactly the requested change; on failure they return
// the input tree and an error.

// IsProjectNumberUnique reports whether projectID is non-blank and not yet
// used by any project in the tree.
func IsProjectNumberUnique(projectID string, tree Tree) bool {
	id := strings.TrimSpace(projectID)
	if id == "" {
		return false
	}
	_, found := FindProject(tree, id)
	return !found
}

// FindProject locates a project by its trimmed ID.
func FindProject(tree Tree, projectID string) (ProjectLocation, bool) {
	id := strings.TrimSpace(projectID)
	for _, main := range tree {
		for _, sub := range main.Children {
			for _, p := range sub.Children {
				if strings.TrimSpace(p.ID) == id {
					return ProjectLocation{MainID: main.ID, SubID: sub.ID, Project: p.Clone()}, true
				}
			}
		}
	}
	return ProjectLocation{}, false
}

// DeleteMain removes a main folder. It refuses with ErrGuardViolation when
// no main folder would remain.
func DeleteMain(mainID string, tree Tree) (Tree, error) {
	if len(tree) <= 1 {
		return tree, ErrGuardViolation
	}
	out := make(Tree, 0, len(tree))
	for _, main := range tree {
		if main.ID == mainID {
			continue
		}
		out = append(out, main.clone())
	}
	if len(out) == 0 {
		return tree, ErrGuardViolation
	}
	return out, nil
}

// DeleteSub removes a sub folder from its main folder.
func DeleteSub(mainID, subID string, tree Tree) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].ID != mainID {
			continue
		}
		subs := out[i].Children[:0]
		for _, sub := range out[i].Children {
			if sub.ID != subID {
				subs = append(subs, sub)
			}
		}
		out[i].Children = subs
	}
	return out
}

// DeleteProject removes a project from the given sub folder.
func DeleteProject(mainID, subID, projectID string, tree Tree) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].ID != mainID {
			continue
		}
		for j := range out[i].Children {
			sub := &out[i].Children[j]
			if sub.ID != subID {
				continue
			}
			projects := sub.Children[:0]
			for _, p := range sub.Children {
				if p.ID == projectID && p.Type == TypeProject {
					continue
				}
				projects = append(projects, p)
			}
			sub.Children = projects
		}
	}
	return out
}

// CopyProject appends a copy of project to the given sub folder under a new
// project number and name. The copy gets a fresh creation time and defaults
// to ongoing when the source has no status.
func CopyProject(mainID, subID string, project ProjectNode, newID, newName string, tree Tree) (Tree, error) {
	id := strings.TrimSpace(newID)
	if !IsProjectNumberUnique(id, tree) {
		return tree, ErrDuplicateProjectID
	}
	name := strings.TrimSpace(newName)
	if name == "" {
		return tree, ErrInvalidName
	}

	copied := project.Clone()
	copied.ID = id
	copied.Name = name
	copied.Type = TypeProject
	copied.CreatedAt = time.Now().UTC()
	if copied.Status == "" {
		copied.Status = StatusOngoing
	}
	return appendProject(tree, mainID, subID, copied)
}

// AddProject appends a new project to the given sub folder.
func AddProject(tree Tree, mainID, subID string, project ProjectNode) (Tree, error) {
	project = project.Clone()
	project.ID = strings.TrimSpace(project.ID)
	if !IsProjectNumberUnique(project.ID, tree) {
		return tree, ErrDuplicateProjectID
	}
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return tree, ErrInvalidName
	}
	if project.Status == "" {
		project.Status = StatusOngoing
	}
	if !project.Status.Valid() {
		return tree, ErrInvalidStatus
	}
	project.Type = TypeProject
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	return appendProject(tree, mainID, subID, project)
}

func appendProject(tree Tree, mainID, subID string, project ProjectNode) (Tree, error) {
	mi, si, ok := locateSub(tree, mainID, subID)
	if !ok {
		return tree, ErrNodeNotFound
	}
	out := tree.Clone()
	out[mi].Children[si].Children = append(out[mi].Children[si].Children, project)
	return out, nil
}

// AddMain appends a main folder. A blank id is generated.
func AddMain(tree Tree, id, name string) (Tree, MainNode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tree, MainNode{}, ErrInvalidName
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	for _, main := range tree {
		if main.ID == id {
			return tree, MainNode{}, ErrDuplicateNodeID
		}
	}
	node := MainNode{ID: id, Name: name, Children: []SubNode{}}
	out := append(tree.Clone(), node)
	return out, node, nil
}

// AddSub appends a sub folder to a main folder. A blank id is generated.
func AddSub(tree Tree, mainID, id, name string) (Tree, SubNode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tree, SubNode{}, ErrInvalidName
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	for i, main := range tree {
		if main.ID != mainID {
			continue
		}
		for _, sub := range main.Children {
			if sub.ID == id {
				return tree, SubNode{}, ErrDuplicateNodeID
			}
		}
		node := SubNode{ID: id, Name: name, Children: []ProjectNode{}}
		out := tree.Clone()
		out[i].Children = append(out[i].Children, node)
		return out, node, nil
	}
	return tree, SubNode{}, ErrNodeNotFound
}

// SetProjectStatus changes the status of a project wherever it lives.
func SetProjectStatus(tree Tree, projectID string, status ProjectStatus) (Tree, error) {
	if !status.Valid() {
		return tree, ErrInvalidStatus
	}
	id := strings.TrimSpace(projectID)
	out := tree.Clone()
	for i := range out {
		for j := range out[i].Children {
			projects := out[i].Children[j].Children
			for k := range projects {
				if strings.TrimSpace(projects[k].ID) == id {
					projects[k].Status = status
					return out, nil
				}
			}
		}
	}
	return tree, ErrNodeNotFound
}

// Normalize fills defaults on imported trees: project type, ongoing status
// and non-nil child slices.
func Normalize(tree Tree) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].Children == nil {
			out[i].Children = []SubNode{}
		}
		for j := range out[i].Children {
			sub := &out[i].Children[j]
			if sub.Children == nil {
				sub.Children = []ProjectNode{}
			}
			for k := range sub.Children {
				p := &sub.Children[k]
				if p.Type == "" {
					p.Type = TypeProject
				}
				if p.Status == "" {
					p.Status = StatusOngoing
				}
			}
		}
	}
	return out
}

// ValidateTree checks the structural invariants: at least one main folder,
// unique main IDs, unique sub IDs within each main and globally unique,
// non-blank project numbers.
func ValidateTree(tree Tree) error {
	if len(tree) == 0 {
		return ErrGuardViolation
	}
	seen := make(map[string]struct{})
	mains := make(map[string]struct{}, len(tree))
	for _, main := range tree {
		if _, dup := mains[main.ID]; dup {
			return fmt.Errorf("main %q: %w", main.ID, ErrDuplicateNodeID)
		}
		mains[main.ID] = struct{}{}
		subs := make(map[string]struct{}, len(main.Children))
		for _, sub := range main.Children {
			if _, dup := subs[sub.ID]; dup {
				return fmt.Errorf("sub %q in main %q: %w", sub.ID, main.ID, ErrDuplicateNodeID)
			}
			subs[sub.ID] = struct{}{}
			for _, p := range sub.Children {
				id := strings.TrimSpace(p.ID)
				if id == "" {
					return ErrDuplicateProjectID
				}
				if _, dup := seen[id]; dup {
					return ErrDuplicateProjectID
				}
				seen[id] = struct{}{}
			}
		}
	}
	return nil
}

func locateSub(tree Tree, mainID, subID string) (int, int, bool) {
	for i, main := range tree {
		if main.ID != mainID {
			continue
		}
		for j, sub := range main.Children {
			if sub.ID == subID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
