package domain

import (
	"path"
	"sort"
	"strings"
)

// PlanMapping assigns one source file to a destination path relative
// to the destination root. Mapping order is significant: collision
// suffixes are assigned in plan order, so a plan always reconciles to
// the same move set.
type PlanMapping struct {
	// Source is the absolute path of the file to relocate.
	Source string

	// Destination is the proposed path relative to the destination
	// root, using forward slashes.
	Destination string
}

// OrganisationPlan is the folder layout proposed by the plan service.
// It is untrusted input: it must pass validation before any
// filesystem mutation occurs.
type OrganisationPlan struct {
	// Mappings lists one destination per known document, in the order
	// the plan proposed them.
	Mappings []PlanMapping

	// Rationale is the service's free-text explanation. Opaque to
	// validation.
	Rationale string
}

// Tree builds the proposed folder hierarchy from the plan's mappings.
// Children are sorted by name, directories first, so rendering is
// stable regardless of mapping order.
func (p *OrganisationPlan) Tree() *FolderNode {
	root := &FolderNode{}
	for _, m := range p.Mappings {
		dir, file := path.Split(m.Destination)
		node := root
		for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
			if part == "" {
				continue
			}
			node = node.child(part, true)
		}
		if file != "" {
			node.child(file, false)
		}
	}
	root.sortChildren()
	return root
}

// FolderNode is one node of the proposed folder hierarchy.
type FolderNode struct {
	// Name is the folder or file name. Empty for the root.
	Name string

	// Dir marks folder nodes; leaves are files.
	Dir bool

	// Children are the node's entries, sorted for display.
	Children []*FolderNode
}

// child finds or creates a child node by name.
func (n *FolderNode) child(name string, dir bool) *FolderNode {
	for _, c := range n.Children {
		if c.Name == name && c.Dir == dir {
			return c
		}
	}
	c := &FolderNode{Name: name, Dir: dir}
	n.Children = append(n.Children, c)
	return c
}

// sortChildren orders children recursively: directories before files,
// then by name.
func (n *FolderNode) sortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Dir != b.Dir {
			return a.Dir
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		c.sortChildren()
	}
}

// Render returns the tree as ASCII art, one entry per line.
func (n *FolderNode) Render() string {
	var b strings.Builder
	if n.Name != "" {
		b.WriteString(n.displayName())
		b.WriteString("\n")
	}
	n.renderChildren(&b, "")
	return b.String()
}

func (n *FolderNode) renderChildren(b *strings.Builder, prefix string) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		connector, childPrefix := "├── ", "│   "
		if last {
			connector, childPrefix = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(c.displayName())
		b.WriteString("\n")
		c.renderChildren(b, prefix+childPrefix)
	}
}

func (n *FolderNode) displayName() string {
	if n.Dir {
		return n.Name + "/"
	}
	return n.Name
}
