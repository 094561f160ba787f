package chat

import (
	"fmt"
)

// NodeKind distinguishes pages from the sections nested inside them.
type NodeKind string

const (
	NodePage    NodeKind = "page"
	NodeSection NodeKind = "section"
)

// SiteNode is one node in the site structure tree. IDs are unique across the
// whole tree, not just among siblings.
type SiteNode struct {
	ID       string     `json:"id"`
	Kind     NodeKind   `json:"kind"`
	Name     string     `json:"name"`
	Children []SiteNode `json:"children"`
}

// CloneNodes deep-copies a structure tree. Merges hand out copies so that a
// brief is never shared mutable state between two callers.
func CloneNodes(nodes []SiteNode) []SiteNode {
	if nodes == nil {
		return nil
	}
	out := make([]SiteNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = CloneNodes(n.Children)
	}
	return out
}

// CountNodes returns the total number of nodes in the tree.
func CountNodes(nodes []SiteNode) int {
	count := 0
	for _, n := range nodes {
		count += 1 + CountNodes(n.Children)
	}
	return count
}

// ValidateStructure enforces the tree invariants: every node has a non-empty
// ID and name, IDs are globally unique, and only page nodes appear at depth 0.
// An empty tree is valid ("undefined structure").
func ValidateStructure(nodes []SiteNode) error {
	seen := make(map[string]bool)
	for _, n := range nodes {
		if n.Kind != NodePage {
			return fmt.Errorf("top-level node %q must be a page, got %q", n.Name, n.Kind)
		}
	}
	return validateNodes(nodes, seen)
}

func validateNodes(nodes []SiteNode, seen map[string]bool) error {
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("structure node %q has an empty id", n.Name)
		}
		if n.Name == "" {
			return fmt.Errorf("structure node %s has an empty name", n.ID)
		}
		if n.Kind != NodePage && n.Kind != NodeSection {
			return fmt.Errorf("structure node %s has unknown kind %q", n.ID, n.Kind)
		}
		if seen[n.ID] {
			return fmt.Errorf("structure node id %s is not unique", n.ID)
		}
		seen[n.ID] = true
		if err := validateNodes(n.Children, seen); err != nil {
			return err
		}
	}
	return nil
}
