package main

import (
	"strings"
	"time"
)

// Container identifies a level of the browsing hierarchy: the bucket list
// root, a bucket, or a prefix-delimited "folder" within a bucket. The key
// is immutable once created.
type Container struct {
	Bucket string
	Prefix string // empty or ends with "/"
}

// RootContainer is the bucket-list root.
var RootContainer = Container{}

// Key returns the cache key for the container: "" for the bucket list,
// "bucket" for a bucket root, "bucket/pre/fix/" below that.
func (c Container) Key() string {
	if c.Bucket == "" {
		return ""
	}
	if c.Prefix == "" {
		return c.Bucket
	}
	return c.Bucket + "/" + c.Prefix
}

// IsRoot reports whether the container is the bucket-list root.
func (c Container) IsRoot() bool {
	return c.Bucket == ""
}

// Child returns the container one level down for a bucket or dir entry.
func (c Container) Child(e Entry) Container {
	if c.IsRoot() {
		return Container{Bucket: e.Name}
	}
	return Container{Bucket: c.Bucket, Prefix: e.Key}
}

// Label returns the display name for the breadcrumb.
func (c Container) Label() string {
	if c.IsRoot() {
		return "buckets"
	}
	if c.Prefix == "" {
		return c.Bucket
	}
	parts := strings.Split(strings.TrimSuffix(c.Prefix, "/"), "/")
	return parts[len(parts)-1]
}

// EntryKind distinguishes listed children of a container.
type EntryKind int

const (
	EntryBucket EntryKind = iota
	EntryDir
	EntryObject
)

// Entry is a single listed child of a container.
type Entry struct {
	Kind         EntryKind
	Name         string // display name (last path segment)
	Key          string // full object key or prefix within the bucket
	Size         int64
	LastModified time.Time
	ETag         string
}

// IsContainer reports whether descending into the entry is valid.
func (e Entry) IsContainer() bool {
	return e.Kind == EntryBucket || e.Kind == EntryDir
}

// NavStack is the breadcrumb of visited containers, root first, current
// last. It is never empty: the zero value is invalid, use NewNavStack.
type NavStack struct {
	stack []Container
}

// NewNavStack creates a stack with the given root as its only element.
func NewNavStack(root Container) *NavStack {
	return &NavStack{stack: []Container{root}}
}

// Current returns the container on top of the stack.
func (n *NavStack) Current() Container {
	return n.stack[len(n.stack)-1]
}

// Root returns the bottom of the stack.
func (n *NavStack) Root() Container {
	return n.stack[0]
}

// Depth returns the number of containers on the stack.
func (n *NavStack) Depth() int {
	return len(n.stack)
}

// Push descends into child. The push is refused unless child is a strict
// descendant of the current container: a bucket root under the bucket-list
// root, or a longer prefix within the same bucket. Prefixes end with "/",
// so the prefix comparison cannot match across a path segment boundary.
// This keeps the stack acyclic and the keys strictly lengthening.
func (n *NavStack) Push(child Container) bool {
	cur := n.Current()
	if cur.IsRoot() {
		if child.Bucket == "" || child.Prefix != "" {
			return false
		}
	} else if child.Bucket != cur.Bucket ||
		len(child.Prefix) <= len(cur.Prefix) ||
		!strings.HasPrefix(child.Prefix, cur.Prefix) {
		return false
	}
	n.stack = append(n.stack, child)
	return true
}

// Pop ascends to the parent and returns the new top. Popping the root is
// a no-op.
func (n *NavStack) Pop() Container {
	if len(n.stack) > 1 {
		n.stack = n.stack[:len(n.stack)-1]
	}
	return n.Current()
}

// Reset drops everything but the root.
func (n *NavStack) Reset() Container {
	n.stack = n.stack[:1]
	return n.Current()
}

// Breadcrumb renders the stack as a path line for the title bar.
func (n *NavStack) Breadcrumb() string {
	labels := make([]string, len(n.stack))
	for i, c := range n.stack {
		labels[i] = c.Label()
	}
	return strings.Join(labels, " / ")
}
