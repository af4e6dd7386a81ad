package trellis

// NodeID identifies a node instance within a Graph.
type NodeID string

// ConnectionID identifies a connection within a Graph.
type ConnectionID string

// ParamKind distinguishes parameter widget behavior.
type ParamKind uint8

const (
	ParamFloat  ParamKind = iota // knob, vertical-drag to adjust
	ParamInt                     // knob with integer stepping
	ParamToggle                  // binary checkbox, commits on press
	ParamEnum                    // option cycler, commits on press
	ParamString                  // text value, edited through the label editor
	ParamSlider                  // horizontal slider handle
	ParamArray                   // fixed-size numeric array, per-cell drag
	ParamBezier                  // four-value bezier curve editor
)

// InputMode governs how a wired value combines with a parameter's static value.
type InputMode uint8

const (
	InputModeOverride InputMode = iota // wired value replaces the static value
	InputModeAdd                       // wired value is added
	InputModeSubtract                  // wired value is subtracted
	InputModeMultiply                  // wired value multiplies
	inputModeCount
)

// Next returns the mode after m, wrapping around. Used by the parameter
// mode button, which cycles on click.
func (m InputMode) Next() InputMode {
	return (m + 1) % inputModeCount
}

// PortSpec describes one typed input or output port on a node type.
type PortSpec struct {
	Name string
	Type string // value type carried by the port, e.g. "float", "vec2"
}

// ParamSpec describes one tunable parameter on a node type.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Step    float64
	Default float64
	Options []string // enum options; len(Options) is the value count
	Size    int      // array length for ParamArray
	HasPort bool     // parameter accepts a live wired value through its own port
}

// Range returns Max-Min clamped away from zero so drag-sensitivity math
// never divides by zero on degenerate specs.
func (p ParamSpec) Range() float64 {
	return max(p.Max-p.Min, epsilon)
}

// NodeSpec describes a node type: display metadata plus the shape of its
// ports and parameters. The engine reads only shape; what the node computes
// is the host's business.
type NodeSpec struct {
	TypeID  string
	Label   string
	Inputs  []PortSpec
	Outputs []PortSpec
	Params  []ParamSpec
}

// Param returns the spec for the named parameter, or nil.
func (s *NodeSpec) Param(name string) *ParamSpec {
	for i := range s.Params {
		if s.Params[i].Name == name {
			return &s.Params[i]
		}
	}
	return nil
}

// Output returns the spec for the named output port, or nil.
func (s *NodeSpec) Output(name string) *PortSpec {
	for i := range s.Outputs {
		if s.Outputs[i].Name == name {
			return &s.Outputs[i]
		}
	}
	return nil
}

// Input returns the spec for the named input port, or nil.
func (s *NodeSpec) Input(name string) *PortSpec {
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			return &s.Inputs[i]
		}
	}
	return nil
}

// SpecCatalog resolves node type ids to specs. Spec returns nil for unknown
// types; the engine then skips the node.
type SpecCatalog interface {
	Spec(typeID string) *NodeSpec
}

// ParamValue holds a parameter value. Exactly one field is meaningful for a
// given ParamKind: Number for float/int/toggle/enum/slider, Text for string,
// Values for array and bezier kinds.
type ParamValue struct {
	Number float64
	Text   string
	Values []float64
}

// NumberValue is shorthand for a numeric ParamValue.
func NumberValue(v float64) ParamValue { return ParamValue{Number: v} }

// NodeInstance is one placed node: identity, type, canvas position (top-left),
// and per-parameter values and input modes.
type NodeInstance struct {
	ID        NodeID
	TypeID    string
	X, Y      float64
	Collapsed bool
	Label     string // override; "" falls back to the spec label

	Params     map[string]ParamValue
	InputModes map[string]InputMode
}

// ParamValue returns the stored value for name, or the spec default.
func (n *NodeInstance) ParamValue(spec *ParamSpec) ParamValue {
	if v, ok := n.Params[spec.Name]; ok {
		return v
	}
	return ParamValue{Number: spec.Default}
}

// InputMode returns the stored input mode for the named parameter
// (InputModeOverride when unset).
func (n *NodeInstance) InputMode(name string) InputMode {
	if m, ok := n.InputModes[name]; ok {
		return m
	}
	return InputModeOverride
}

// Connection is a directed wire from a node's output port to either another
// node's input port or a parameter's live-value slot. TargetPort and
// TargetParam are mutually exclusive.
type Connection struct {
	ID          ConnectionID
	SourceNode  NodeID
	SourcePort  string
	TargetNode  NodeID
	TargetPort  string
	TargetParam string
}

// slotKey identifies the target slot for the at-most-one-incoming invariant.
func (c *Connection) slotKey() string {
	if c.TargetParam != "" {
		return string(c.TargetNode) + "\x00param\x00" + c.TargetParam
	}
	return string(c.TargetNode) + "\x00port\x00" + c.TargetPort
}

// Graph is an ordered sequence of nodes plus a set of connections. The node
// order is the paint order: later nodes draw on top and win hit tests. The
// graph is owned by the hosting application; the engine reads it and reports
// mutations through the GraphObserver.
type Graph struct {
	Nodes       []*NodeInstance
	Connections []*Connection
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *NodeInstance {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Connection returns the connection with the given id, or nil.
func (g *Graph) Connection(id ConnectionID) *Connection {
	for _, c := range g.Connections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// IncomingTo returns the connection feeding the given slot, or nil.
// Pass port for regular inputs and param for parameter slots (not both).
func (g *Graph) IncomingTo(node NodeID, port, param string) *Connection {
	for _, c := range g.Connections {
		if c.TargetNode != node {
			continue
		}
		if param != "" && c.TargetParam == param {
			return c
		}
		if port != "" && c.TargetParam == "" && c.TargetPort == port {
			return c
		}
	}
	return nil
}

// Incident returns the connections touching the given node, either as
// source or target. The result shares no storage with the graph.
func (g *Graph) Incident(node NodeID) []*Connection {
	var out []*Connection
	for _, c := range g.Connections {
		if c.SourceNode == node || c.TargetNode == node {
			out = append(out, c)
		}
	}
	return out
}

// HasWiredParam reports whether any of the node's parameters has an incoming
// connection. Nodes with wired parameters render mode indicators outside
// their box, which widens their dirty region.
func (g *Graph) HasWiredParam(node NodeID) bool {
	for _, c := range g.Connections {
		if c.TargetNode == node && c.TargetParam != "" {
			return true
		}
	}
	return false
}

// ValidConnection reports whether c may be created: both endpoints exist,
// source differs from target, the source port is a real output, and the
// target slot is a real input port or a port-capable parameter. Occupancy of
// the target slot does not invalidate the connection; AddConnection
// replaces the incumbent.
func (g *Graph) ValidConnection(catalog SpecCatalog, c *Connection) bool {
	if c.SourceNode == c.TargetNode {
		return false
	}
	if (c.TargetPort == "") == (c.TargetParam == "") {
		return false
	}
	src := g.Node(c.SourceNode)
	dst := g.Node(c.TargetNode)
	if src == nil || dst == nil {
		return false
	}
	srcSpec := catalog.Spec(src.TypeID)
	dstSpec := catalog.Spec(dst.TypeID)
	if srcSpec == nil || dstSpec == nil {
		return false
	}
	if srcSpec.Output(c.SourcePort) == nil {
		return false
	}
	if c.TargetParam != "" {
		p := dstSpec.Param(c.TargetParam)
		return p != nil && p.HasPort
	}
	return dstSpec.Input(c.TargetPort) != nil
}

// AddConnection inserts c, replacing any existing connection into the same
// target slot. Returns the replaced connection, or nil.
func (g *Graph) AddConnection(c *Connection) *Connection {
	var replaced *Connection
	key := c.slotKey()
	for i, existing := range g.Connections {
		if existing.slotKey() == key {
			replaced = existing
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			break
		}
	}
	g.Connections = append(g.Connections, c)
	return replaced
}

// RemoveConnection deletes the connection with the given id, if present.
func (g *Graph) RemoveConnection(id ConnectionID) {
	for i, c := range g.Connections {
		if c.ID == id {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return
		}
	}
}

// RemoveNode deletes the node and every connection touching it.
func (g *Graph) RemoveNode(id NodeID) {
	for i, n := range g.Nodes {
		if n.ID == id {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			break
		}
	}
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if c.SourceNode != id && c.TargetNode != id {
			kept = append(kept, c)
		}
	}
	g.Connections = kept
}

// --- Host integration ports ---

// GraphObserver receives every graph mutation the user performs on the
// canvas. The engine itself never persists anything; hosts apply these to
// their own model (and drive undo/redo from them if they wish).
//
// Embed NopObserver to implement only the methods you care about.
type GraphObserver interface {
	NodeMoved(id NodeID, x, y float64)
	NodeSelected(id NodeID, multi bool) // id "" reports a cleared selection
	NodeDeleted(id NodeID)
	NodeLabelChanged(id NodeID, label string) // label "" clears the override
	ConnectionCreated(sourceNode NodeID, sourcePort string, targetNode NodeID, targetPort, targetParam string)
	ConnectionSelected(id ConnectionID, multi bool) // id "" reports a cleared selection
	ConnectionDeleted(id ConnectionID)
	ParameterChanged(id NodeID, param string, value ParamValue)
	ParameterInputModeChanged(id NodeID, param string, mode InputMode)
}

// NopObserver implements GraphObserver with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) NodeMoved(NodeID, float64, float64) {}
func (NopObserver) NodeSelected(NodeID, bool)          {}
func (NopObserver) NodeDeleted(NodeID)                 {}
func (NopObserver) NodeLabelChanged(NodeID, string)    {}
func (NopObserver) ConnectionCreated(NodeID, string, NodeID, string, string) {
}
func (NopObserver) ConnectionSelected(ConnectionID, bool)       {}
func (NopObserver) ConnectionDeleted(ConnectionID)              {}
func (NopObserver) ParameterChanged(NodeID, string, ParamValue) {}
func (NopObserver) ParameterInputModeChanged(NodeID, string, InputMode) {
}

// EffectiveValueResolver reports the live value of a wired parameter. The
// canvas polls it on a fixed interval and marks affected nodes dirty so
// animated wiring stays visually current. Return ok=false when no live value
// is available.
type EffectiveValueResolver interface {
	EffectiveValue(node NodeID, param string) (value float64, ok bool)
}
