package canvas

import (
	"sync"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

// NodeList holds the nodes of one board canvas and notifies a listener
// when the list transitions between empty and non-empty, which drives the
// welcome text on a blank board. Safe for concurrent use.
type NodeList struct {
	mu       sync.Mutex
	nodes    []models.CanvasNode
	selected string

	// OnEmptyChanged is called with the new emptiness whenever the node
	// count crosses zero. Called with the lock released, in the
	// mutating goroutine. May be nil.
	OnEmptyChanged func(empty bool)
}

// NewNodeList creates a list seeded with the given nodes.
func NewNodeList(nodes []models.CanvasNode) *NodeList {
	return &NodeList{nodes: append([]models.CanvasNode{}, nodes...)}
}

// Len returns the node count.
func (l *NodeList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.nodes)
}

// Nodes returns a copy of the node slice.
func (l *NodeList) Nodes() []models.CanvasNode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.CanvasNode{}, l.nodes...)
}

// Append adds a node.
func (l *NodeList) Append(node models.CanvasNode) {
	l.mu.Lock()
	wasEmpty := len(l.nodes) == 0
	l.nodes = append(l.nodes, node)
	cb := l.OnEmptyChanged
	l.mu.Unlock()

	if wasEmpty && cb != nil {
		cb(false)
	}
}

// Remove deletes the node with the given id. Removing the selected node
// clears the selection.
func (l *NodeList) Remove(id string) bool {
	l.mu.Lock()
	idx := -1
	for i, n := range l.nodes {
		if models.MustRecordIDString(n.ID) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.nodes = append(l.nodes[:idx], l.nodes[idx+1:]...)
	if l.selected == id {
		l.selected = ""
	}
	nowEmpty := len(l.nodes) == 0
	cb := l.OnEmptyChanged
	l.mu.Unlock()

	if nowEmpty && cb != nil {
		cb(true)
	}
	return true
}

// Replace swaps the node set wholesale, as after a cache refetch.
func (l *NodeList) Replace(nodes []models.CanvasNode) {
	l.mu.Lock()
	wasEmpty := len(l.nodes) == 0
	l.nodes = append([]models.CanvasNode{}, nodes...)
	nowEmpty := len(l.nodes) == 0
	if l.selected != "" {
		found := false
		for _, n := range l.nodes {
			if models.MustRecordIDString(n.ID) == l.selected {
				found = true
				break
			}
		}
		if !found {
			l.selected = ""
		}
	}
	cb := l.OnEmptyChanged
	l.mu.Unlock()

	if wasEmpty != nowEmpty && cb != nil {
		cb(nowEmpty)
	}
}

// Select makes id the sole selected node.
func (l *NodeList) Select(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = id
}

// Selected returns the selected node id, empty when nothing is selected.
func (l *NodeList) Selected() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}
