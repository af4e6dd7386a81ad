package trellis

// CanvasState is the complete UI state of the canvas: zoom, pan, and the
// current selection. It is an immutable-update value: handlers derive a new
// state with the With* helpers and commit it through the single
// Canvas.ApplyState choke point, which keeps state transitions deterministic
// and gives hosts one place to hook undo/redo.
type CanvasState struct {
	Zoom       float64
	PanX, PanY float64

	selectedNodes       map[NodeID]struct{}
	selectedConnections map[ConnectionID]struct{}
}

// NodeSelected reports whether the node is selected.
func (s CanvasState) NodeSelected(id NodeID) bool {
	_, ok := s.selectedNodes[id]
	return ok
}

// ConnectionSelected reports whether the connection is selected.
func (s CanvasState) ConnectionSelected(id ConnectionID) bool {
	_, ok := s.selectedConnections[id]
	return ok
}

// SelectedNodes returns the selected node ids in unspecified order.
func (s CanvasState) SelectedNodes() []NodeID {
	out := make([]NodeID, 0, len(s.selectedNodes))
	for id := range s.selectedNodes {
		out = append(out, id)
	}
	return out
}

// SelectedConnections returns the selected connection ids in unspecified order.
func (s CanvasState) SelectedConnections() []ConnectionID {
	out := make([]ConnectionID, 0, len(s.selectedConnections))
	for id := range s.selectedConnections {
		out = append(out, id)
	}
	return out
}

// SelectionCount returns the number of selected nodes.
func (s CanvasState) SelectionCount() int {
	return len(s.selectedNodes)
}

func copyNodeSet(m map[NodeID]struct{}) map[NodeID]struct{} {
	out := make(map[NodeID]struct{}, len(m)+1)
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func copyConnSet(m map[ConnectionID]struct{}) map[ConnectionID]struct{} {
	out := make(map[ConnectionID]struct{}, len(m)+1)
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// WithPan returns a copy with the pan offset replaced.
func (s CanvasState) WithPan(x, y float64) CanvasState {
	s.PanX = x
	s.PanY = y
	return s
}

// WithZoom returns a copy with the zoom replaced. Clamping happens when the
// state is applied to the viewport.
func (s CanvasState) WithZoom(zoom float64) CanvasState {
	s.Zoom = zoom
	return s
}

// WithNodeSelected returns a copy with the node added to the selection.
func (s CanvasState) WithNodeSelected(id NodeID) CanvasState {
	set := copyNodeSet(s.selectedNodes)
	set[id] = struct{}{}
	s.selectedNodes = set
	return s
}

// WithNodeDeselected returns a copy with the node removed from the selection.
func (s CanvasState) WithNodeDeselected(id NodeID) CanvasState {
	set := copyNodeSet(s.selectedNodes)
	delete(set, id)
	s.selectedNodes = set
	return s
}

// WithOnlyNode returns a copy whose selection is exactly the one node.
func (s CanvasState) WithOnlyNode(id NodeID) CanvasState {
	s.selectedNodes = map[NodeID]struct{}{id: {}}
	s.selectedConnections = nil
	return s
}

// WithConnectionSelected returns a copy with the connection added to the
// selection.
func (s CanvasState) WithConnectionSelected(id ConnectionID) CanvasState {
	set := copyConnSet(s.selectedConnections)
	set[id] = struct{}{}
	s.selectedConnections = set
	return s
}

// WithConnectionDeselected returns a copy with the connection removed.
func (s CanvasState) WithConnectionDeselected(id ConnectionID) CanvasState {
	set := copyConnSet(s.selectedConnections)
	delete(set, id)
	s.selectedConnections = set
	return s
}

// WithClearedSelection returns a copy with no nodes or connections selected.
func (s CanvasState) WithClearedSelection() CanvasState {
	s.selectedNodes = nil
	s.selectedConnections = nil
	return s
}

// WithClearedNodes returns a copy with no nodes selected, keeping the
// connection selection.
func (s CanvasState) WithClearedNodes() CanvasState {
	s.selectedNodes = nil
	return s
}
