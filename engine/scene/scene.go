package scene

import (
	"reflect"
)

/**
 * @brief A renderer-ready scene graph. The scene owns every entity loaded
 * from a document: components are partitioned by type and kept in document
 * order, so an entity stays addressable by its original document index.
 * Everything else holds non-owning references into this registry.
 */
type Scene struct {
	Name string

	components map[reflect.Type][]interface{}
	nodes      []*Node
	children   []*Node
}

func New(name string) *Scene {
	return &Scene{
		Name:       name,
		components: make(map[reflect.Type][]interface{}),
	}
}

func componentKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// SetComponents replaces the whole collection of one entity type. The
// slice order is preserved as the lookup order.
func SetComponents[T any](s *Scene, components []T) {
	stored := make([]interface{}, len(components))
	for i, c := range components {
		stored[i] = c
	}
	s.components[componentKey[T]()] = stored
}

// AddComponent appends one entity to its type's collection.
func AddComponent[T any](s *Scene, component T) {
	key := componentKey[T]()
	s.components[key] = append(s.components[key], component)
}

// Components returns all entities of one type in insertion order.
func Components[T any](s *Scene) []T {
	stored := s.components[componentKey[T]()]
	out := make([]T, len(stored))
	for i := range stored {
		out[i] = stored[i].(T)
	}
	return out
}

// SetNodes hands ownership of the full node list to the scene.
func (s *Scene) SetNodes(nodes []*Node) {
	s.nodes = nodes
}

// AddNode appends one node to the owned node list.
func (s *Scene) AddNode(node *Node) {
	s.nodes = append(s.nodes, node)
}

func (s *Scene) Nodes() []*Node {
	return s.nodes
}

// AddChild attaches a node as a top-level child of the scene.
func (s *Scene) AddChild(node *Node) {
	s.children = append(s.children, node)
}

func (s *Scene) Children() []*Node {
	return s.children
}
