package vfs

import (
	"sort"
	"strings"
)

// DefaultTreeDepth is the folder depth shown in feedback snapshots.
const DefaultTreeDepth = 2

type treeNode struct {
	name     string
	folder   bool
	children map[string]*treeNode
}

func (n *treeNode) child(name string, folder bool) *treeNode {
	if c, ok := n.children[name]; ok {
		return c
	}
	c := &treeNode{name: name, folder: folder, children: make(map[string]*treeNode)}
	n.children[name] = c
	return c
}

func (n *treeNode) sorted() []*treeNode {
	out := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].folder != out[j].folder {
			return out[i].folder
		}
		return out[i].name < out[j].name
	})
	return out
}

// SimplifiedTree renders paths as an indented 📁/📄 tree without content.
// Folders nested past maxDepth are collapsed to "name/ (and more...)";
// files are always listed at the levels that are shown. The reserved
// conversation file is skipped.
func SimplifiedTree(paths []string, maxDepth int) string {
	root := &treeNode{folder: true, children: make(map[string]*treeNode)}
	for _, p := range paths {
		if isReserved(p) {
			continue
		}
		parts := strings.Split(strings.Trim(p, "/"), "/")
		node := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			last := i == len(parts)-1
			node = node.child(part, !last || IsDir(p))
		}
	}
	if len(root.children) == 0 {
		return "(empty project)\n"
	}

	var b strings.Builder
	var walk func(n *treeNode, level int)
	walk = func(n *treeNode, level int) {
		if n != root {
			b.WriteString(indent(level - 1))
			b.WriteString("📁 " + n.name + "/\n")
		}
		for _, c := range n.sorted() {
			switch {
			case !c.folder:
				b.WriteString(indent(level))
				b.WriteString("📄 " + c.name + "\n")
			case level < maxDepth:
				walk(c, level+1)
			case len(c.children) > 0:
				b.WriteString(indent(level))
				b.WriteString("📁 " + c.name + "/ (and more...)\n")
			default:
				b.WriteString(indent(level))
				b.WriteString("📁 " + c.name + "/\n")
			}
		}
	}
	walk(root, 0)
	return b.String()
}

func indent(level int) string {
	return strings.Repeat("  ", level)
}

// Tree renders the store's simplified tree at depth.
func (s *Store) Tree(depth int) string {
	return SimplifiedTree(s.List(), depth)
}
