package internal

import (
	"bytes"
	"github.com/ValentinKolb/mctl/lib/engine"
	"strconv"
)

// --------------------------------------------------------------------------
// Control Tree
// --------------------------------------------------------------------------

// Leaf is a control. Read copies the current value into dst, Write applies
// src. A nil Read makes the control write-only, a nil Write read-only.
// Both receive the indices of the numeric components on the path.
type Leaf struct {
	Size       int
	Read       func(idx []uint, dst []byte) int
	Write      func(idx []uint, src []byte) int
	WriteFirst bool // apply newp before reading oldp (epoch)
}

// Node is an interior node or a leaf of the control tree. A node has either
// named children, addressed by their position, or a single Indexed child
// that stands for every numeric component accepted by IndexOK.
type Node struct {
	Name     string
	Children []*Node
	Indexed  *Node
	IndexOK  func(i uint) bool
	Leaf     *Leaf
}

// Named returns an interior node with the given children.
func Named(name string, children ...*Node) *Node {
	return &Node{Name: name, Children: children}
}

// Index returns an interior node whose single child is addressed by number.
func Index(name string, ok func(i uint) bool, child *Node) *Node {
	return &Node{Name: name, Indexed: child, IndexOK: ok}
}

// Ctl returns a leaf node.
func Ctl(name string, leaf *Leaf) *Node {
	return &Node{Name: name, Leaf: leaf}
}

func (n *Node) child(seg []byte) (*Node, uint, bool) {
	if n.Indexed != nil {
		i, err := strconv.ParseUint(string(seg), 10, 0)
		if err != nil || !n.IndexOK(uint(i)) {
			return nil, 0, false
		}
		return n.Indexed, uint(i), true
	}
	for id, c := range n.Children {
		if c.Name == string(seg) {
			return c, uint(id), true
		}
	}
	return nil, 0, false
}

func (n *Node) childByID(id uint) (*Node, bool) {
	if n.Indexed != nil {
		if !n.IndexOK(id) {
			return nil, false
		}
		return n.Indexed, true
	}
	if id >= uint(len(n.Children)) {
		return nil, false
	}
	return n.Children[id], true
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// SplitName returns the components of a NUL-terminated name, or ok=false if
// the terminator is missing or a component is empty.
func SplitName(name []byte) (segs [][]byte, ok bool) {
	end := bytes.IndexByte(name, 0)
	if end <= 0 {
		return nil, false
	}
	segs = bytes.Split(name[:end], []byte("."))
	for _, s := range segs {
		if len(s) == 0 {
			return nil, false
		}
	}
	return segs, true
}

// NameToMib walks segs from root and writes the component ids to mib. It
// fails with ENOENT when a component is unknown or mib is too short.
func NameToMib(root *Node, segs [][]byte, mib []uint) (n int, node *Node, idx []uint, status int) {
	if len(segs) > len(mib) {
		return 0, nil, nil, engine.ENOENT
	}
	node = root
	for i, s := range segs {
		c, id, ok := node.child(s)
		if !ok {
			return 0, nil, nil, engine.ENOENT
		}
		if node.Indexed != nil {
			idx = append(idx, id)
		}
		mib[i] = id
		node = c
	}
	return len(segs), node, idx, engine.StatusOK
}

// ByMib walks mib from root and returns the leaf it addresses.
func ByMib(root *Node, mib []uint) (leaf *Leaf, idx []uint, status int) {
	node := root
	for _, id := range mib {
		c, ok := node.childByID(id)
		if !ok {
			return nil, nil, engine.ENOENT
		}
		if node.Indexed != nil {
			idx = append(idx, id)
		}
		node = c
	}
	if node.Leaf == nil {
		return nil, nil, engine.ENOENT
	}
	return node.Leaf, idx, engine.StatusOK
}

// Walk calls fn for every leaf with its dotted name, using "<i>" for indexed
// components.
func Walk(root *Node, fn func(name string, leaf *Leaf)) {
	var rec func(n *Node, prefix string)
	rec = func(n *Node, prefix string) {
		join := func(s string) string {
			if prefix == "" {
				return s
			}
			return prefix + "." + s
		}
		if n.Leaf != nil {
			fn(prefix, n.Leaf)
			return
		}
		if n.Indexed != nil {
			rec(n.Indexed, join("<i>"))
			return
		}
		for _, c := range n.Children {
			rec(c, join(c.Name))
		}
	}
	rec(root, "")
}

// --------------------------------------------------------------------------
// Call
// --------------------------------------------------------------------------

// Call performs one control operation on leaf with mallctl semantics:
//   - a non-nil newp on a read-only or oldp on a write-only control: EPERM
//   - a buffer whose length differs from the value size: EINVAL
//   - read and write in the order given by WriteFirst, oldp is only filled
//     when the whole operation succeeds
func Call(leaf *Leaf, idx []uint, oldp, newp []byte) int {
	if newp != nil && leaf.Write == nil {
		return engine.EPERM
	}
	if oldp != nil && leaf.Read == nil {
		return engine.EPERM
	}
	if (oldp != nil && len(oldp) != leaf.Size) || (newp != nil && len(newp) != leaf.Size) {
		return engine.EINVAL
	}

	if leaf.WriteFirst && newp != nil {
		if st := leaf.Write(idx, newp); st != engine.StatusOK {
			return st
		}
		newp = nil
	}

	var old []byte
	if oldp != nil {
		old = make([]byte, leaf.Size)
		if st := leaf.Read(idx, old); st != engine.StatusOK {
			return st
		}
	}
	if newp != nil {
		if st := leaf.Write(idx, newp); st != engine.StatusOK {
			return st
		}
	}
	if oldp != nil {
		copy(oldp, old)
	}
	return engine.StatusOK
}
