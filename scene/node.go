package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-viewer/gpu"
)

// Primitive is one drawable unit: an uploaded buffer and the material it is
// drawn with.
type Primitive struct {
	Buffer   *gpu.GeometryBuffer
	Material *Material
}

// Node represents an object in the scene graph. The local transform is
// Matrix × T × R × S; Matrix stays identity for nodes described by TRS.
type Node struct {
	Name        string
	Matrix      mgl32.Mat4
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	Parent      *Node
	Children    []*Node
	Primitives  []*Primitive
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Matrix:   mgl32.Ident4(),
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// LocalMatrix composes the node's own transform.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Translation.X(), n.Translation.Y(), n.Translation.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return n.Matrix.Mul4(t).Mul4(r).Mul4(s)
}

// WorldMatrix walks up to the root. Draw does not use it; it accumulates
// top-down instead.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.Parent == nil {
		return n.LocalMatrix()
	}
	return n.Parent.WorldMatrix().Mul4(n.LocalMatrix())
}

// Walk visits the subtree depth-first in child order, passing each node's
// world transform given the parent world transform.
func (n *Node) Walk(parent mgl32.Mat4, fn func(n *Node, world mgl32.Mat4)) {
	world := parent.Mul4(n.LocalMatrix())
	fn(n, world)
	for _, child := range n.Children {
		child.Walk(world, fn)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
