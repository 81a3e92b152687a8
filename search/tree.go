package search

import (
	"strings"
	"sync"
	"sync/atomic"
)

// NodeKind distinguishes the three levels of a result tree.
type NodeKind int

const (
	KindDirectory NodeKind = iota
	KindFile
	KindLine
)

func (k NodeKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindLine:
		return "line"
	default:
		return "unknown"
	}
}

// Region is a byte range [Start, End) of a matched line.
type Region struct {
	Start int
	End   int
}

// Node is one entry of a result tree. Its exported fields never change after
// the node has been published.
type Node struct {
	Kind       NodeKind
	Generation Generation
	// Name is the directory segment, the file base name, or empty for lines.
	Name string
	// Path is the root-relative path. Directory paths end with "/".
	Path string
	// MatchCount is the number of matching lines of a file node.
	MatchCount int
	// Pattern is the content pattern that produced a file or line node.
	Pattern    string
	LineNumber int
	Text       string
	Regions    []Region

	parent     *Node
	children   []*Node
	definition atomic.Bool
}

// Parent returns the enclosing node, or nil for the tree root.
func (n *Node) Parent() *Node {
	return n.parent
}

// HasDefinition reports whether the annotator found a definition of the
// pattern in this file. It may flip to true after the search has finished.
func (n *Node) HasDefinition() bool {
	return n.definition.Load()
}

// Tree holds the results of one search generation. Only the engine's writer
// adds nodes; any goroutine may read.
type Tree struct {
	generation Generation

	mu    sync.RWMutex
	root  *Node
	dirs  map[string]*Node
	files []*Node
}

func newTree(generation Generation) *Tree {
	root := &Node{Kind: KindDirectory, Generation: generation}
	return &Tree{
		generation: generation,
		root:       root,
		dirs:       map[string]*Node{"": root},
	}
}

// Generation returns the search generation the tree belongs to.
func (t *Tree) Generation() Generation {
	return t.generation
}

// Root returns the unnamed top-level directory node.
func (t *Tree) Root() *Node {
	return t.root
}

// Children returns a copy of n's children in insertion order.
func (t *Tree) Children(n *Node) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// FileMatches returns the file nodes in the order they were added.
func (t *Tree) FileMatches() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Node(nil), t.files...)
}

// Lookup returns the directory node for a path ending in "/" or the file
// node for any other path.
func (t *Tree) Lookup(path string) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if path == "" || strings.HasSuffix(path, "/") {
		return t.dirs[path]
	}
	for _, file := range t.files {
		if file.Path == path {
			return file
		}
	}
	return nil
}

// Walk visits every node depth-first in display order. The root itself is
// not visited; depth starts at zero for its children.
func (t *Tree) Walk(visit func(n *Node, depth int)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	walkNodes(t.root.children, 0, visit)
}

func walkNodes(nodes []*Node, depth int, visit func(n *Node, depth int)) {
	for _, n := range nodes {
		visit(n, depth)
		walkNodes(n.children, depth+1, visit)
	}
}

// addFile attaches a matching file, creating the missing directory chain.
// It returns every created node in publication order.
func (t *Tree) addFile(result fileResult, pattern string) (added []*Node, file *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.root
	dir, name := "", result.path
	if i := strings.LastIndex(result.path, "/"); i >= 0 {
		dir, name = result.path[:i], result.path[i+1:]
	}

	if dir != "" {
		key := ""
		for _, segment := range strings.Split(dir, "/") {
			key += segment + "/"
			node, ok := t.dirs[key]
			if !ok {
				node = &Node{
					Kind:       KindDirectory,
					Generation: t.generation,
					Name:       segment,
					Path:       key,
					parent:     parent,
				}
				parent.children = append(parent.children, node)
				t.dirs[key] = node
				added = append(added, node)
			}
			parent = node
		}
	}

	file = &Node{
		Kind:       KindFile,
		Generation: t.generation,
		Name:       name,
		Path:       result.path,
		MatchCount: len(result.lines),
		Pattern:    pattern,
		parent:     parent,
	}
	parent.children = append(parent.children, file)
	t.files = append(t.files, file)
	added = append(added, file)

	for _, line := range result.lines {
		node := &Node{
			Kind:       KindLine,
			Generation: t.generation,
			Path:       result.path,
			Pattern:    pattern,
			LineNumber: line.number,
			Text:       line.text,
			Regions:    line.regions,
			parent:     file,
		}
		file.children = append(file.children, node)
		added = append(added, node)
	}
	return added, file
}
