// Package hostgraph is the process-wide topology manager for plug-in
// instances (C12): a registry of live nodes, serialisable routing edges
// between them, and automatic late-binding when a serialised peer
// reappears after being destroyed and recreated (§4.11).
package hostgraph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PinInt is a 16-bit signed port index; InvalidPin is its sentinel.
type PinInt = int16

const InvalidPin PinInt = -1

// PortPair is a directed pair of port indices (source, destination).
type PortPair struct {
	Source PinInt
	Dest   PinInt
}

// SerializedHandle is a stable 128-bit node identity, generated lazily and
// compared by bitwise equality and lexicographic order (§3's
// HostGraphNode's "optional 128-bit id").
type SerializedHandle struct {
	id uuid.UUID
}

func newHandle() SerializedHandle {
	return SerializedHandle{id: uuid.New()}
}

// Equal reports whether two handles identify the same node.
func (h SerializedHandle) Equal(o SerializedHandle) bool {
	return h.id == o.id
}

// Less gives SerializedHandle a total (lexicographic) order.
func (h SerializedHandle) Less(o SerializedHandle) bool {
	return bytes.Compare(h.id[:], o.id[:]) < 0
}

func (h SerializedHandle) String() string {
	return h.id.String()
}

// DetailChange classifies a broadcastDetailChange notification.
type DetailChange int

const (
	Rename DetailChange = iota
	Reidentified
)

// NodeView is one node's entry in a Model snapshot.
type NodeView struct {
	Node             SerializedHandle
	Name             string
	ConnectionOffset int
	ConnectionCount  int
	PortCount        int
	Version          int
}

// Model is a point-in-time snapshot of the whole graph (§4.11's "Model
// view"). HostIndex is the index of the node that produced the snapshot.
type Model struct {
	Nodes           []NodeView
	Connections     []PortPair
	HostIndex       int
	PreviousVersion int
}

// Changed reports whether v's version advanced since this model's
// PreviousVersion was captured, letting the caller diff two snapshots.
func (m Model) Changed(v NodeView) bool {
	return v.Version >= m.PreviousVersion
}

// Mixer is the stream-mix primitive a Node submits connect/disconnect
// requests to once a peer resolves to a live reference. The real-time audio
// routing graph is out of this package's scope (§1 Non-goals) -- Mixer is
// the seam a host wires its own mixer through; NopMixer is the zero value
// used when nothing needs to observe these submissions (tests, demos).
type Mixer interface {
	Connect(peer *Node, pair PortPair)
	Disconnect(peer *Node, pair PortPair)
}

// NopMixer implements Mixer by doing nothing.
type NopMixer struct{}

func (NopMixer) Connect(*Node, PortPair)    {}
func (NopMixer) Disconnect(*Node, PortPair) {}

type relation struct {
	live   *Node
	inputs map[PortPair]struct{}
}

// Node is one plug-in instance's registration in the host graph. All
// exported methods are safe for concurrent use: every operation serialises
// on the package's single static lock, mirroring the original's one
// process-wide mutex guarding every instance's topology (§4.11,§5).
type Node struct {
	id                 *SerializedHandle
	name               string
	portCount          int
	topology           map[SerializedHandle]*relation
	expectedResurrect  int
	version            int
	mix                Mixer
	onModelChanged     func()
}

var (
	registryMu  sync.Mutex
	staticSet   = map[*Node]struct{}{}
	globalVersion int
)

// New registers a new node under name with portCount analysis channels and
// broadcasts onNodeCreated to every existing node, per §4.11's Registry
// responsibility. mix may be nil, in which case submissions are dropped.
func New(name string, portCount int, mix Mixer) *Node {
	if mix == nil {
		mix = NopMixer{}
	}
	n := &Node{
		name:      name,
		portCount: portCount,
		topology:  make(map[SerializedHandle]*relation),
		mix:       mix,
	}

	registryMu.Lock()
	n.broadcastCreateLocked()
	registryMu.Unlock()

	return n
}

// Close unregisters the node, broadcasting onNodeDestroyed and disconnecting
// all of its currently-live incident edges. The serialised record (if any)
// is kept until a new owner of that id appears or the topology is cleared.
func (n *Node) Close() {
	registryMu.Lock()
	for _, rel := range n.topology {
		if rel.live == nil {
			continue
		}
		for pair := range rel.inputs {
			n.mix.Disconnect(rel.live, pair)
		}
	}
	n.broadcastDestructLocked()
	registryMu.Unlock()
}

// OnModelChanged registers a callback fired (synchronously, while the
// registry lock is held) after any operation that may have altered this
// node's view of the model -- a renderer typically uses this to schedule a
// repaint, mirroring addModelListener's async-update trigger.
func (n *Node) OnModelChanged(callback func()) {
	registryMu.Lock()
	n.onModelChanged = callback
	registryMu.Unlock()
}

// SetName renames the node and broadcasts a Rename detail change.
func (n *Node) SetName(name string) {
	registryMu.Lock()
	n.name = name
	n.broadcastDetailChangeLocked(Rename)
	registryMu.Unlock()
}

// Connect records an edge from peerID into this node's input pair. If the
// peer is currently live the edge is also submitted to the mixer;
// otherwise, if the peer was not yet recorded, expectedResurrect is
// incremented (it counts unresolved peers, not edges) so a future
// onNodeCreated can replay the peer's edges. Returns false if the edge
// already existed.
func (n *Node) Connect(peerID SerializedHandle, pair PortPair) bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	defer n.triggerModelUpdateLocked()

	rel, known := n.topology[peerID]
	if !known {
		rel = &relation{inputs: make(map[PortPair]struct{})}
		n.topology[peerID] = rel
	}
	if _, exists := rel.inputs[pair]; exists {
		return false
	}
	rel.inputs[pair] = struct{}{}

	if h := n.resolveLocked(peerID); h != nil {
		n.mix.Connect(h, pair)
	} else if !known {
		n.expectedResurrect++
	}

	return true
}

// Disconnect removes a previously-recorded edge. Returns false if it did
// not exist.
func (n *Node) Disconnect(peerID SerializedHandle, pair PortPair) bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	defer n.triggerModelUpdateLocked()

	rel, known := n.topology[peerID]
	if !known {
		rel = &relation{inputs: make(map[PortPair]struct{})}
		n.topology[peerID] = rel
	}
	if _, exists := rel.inputs[pair]; !exists {
		return false
	}
	delete(rel.inputs, pair)

	if h := n.resolveLocked(peerID); h != nil {
		n.mix.Disconnect(h, pair)
	} else if !known {
		n.expectedResurrect++
	}

	return true
}

// GetModel returns a full snapshot of the registry as seen from this node.
func (n *Node) GetModel() Model {
	registryMu.Lock()
	defer registryMu.Unlock()

	var m Model
	for other := range staticSet {
		offset := len(m.Connections)
		serialized := n.serializeReferenceLocked(other)

		if rel, ok := n.topology[serialized]; ok {
			for pair := range rel.inputs {
				m.Connections = append(m.Connections, pair)
			}
		}

		m.Nodes = append(m.Nodes, NodeView{
			Node:             serialized,
			Name:             other.name,
			ConnectionOffset: offset,
			ConnectionCount:  len(m.Connections) - offset,
			PortCount:        other.portCount,
			Version:          other.version,
		})

		if other == n {
			m.HostIndex = len(m.Nodes) - 1
		}
	}

	return m
}

// UpdateModel refreshes m in place with a fresh snapshot, stamping
// PreviousVersion with the version observed before the refresh so the
// caller can diff against the result of a prior call.
func (n *Node) UpdateModel(m *Model) {
	registryMu.Lock()
	current := globalVersion
	registryMu.Unlock()

	*m = n.GetModel()
	m.PreviousVersion = current
}

// serializedLayout is the wire-compatible persisted form (§6): a versioned
// record {name, optional uuid, edgeCount, {uuid peerId, srcPort, dstPort}}.
type serializedLayout struct {
	Name  string
	ID    *SerializedHandle
	Edges []serializedEdge
}

type serializedEdge struct {
	Peer SerializedHandle
	Pair PortPair
}

// Serialize emits the node's name, optional id and recorded edges.
func (n *Node) Serialize() ([]byte, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	var buf bytes.Buffer

	nameBytes := []byte(n.name)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(nameBytes))); err != nil {
		return nil, err
	}
	buf.Write(nameBytes)

	hasID := byte(0)
	if n.id != nil {
		hasID = 1
	}
	buf.WriteByte(hasID)
	if n.id != nil {
		buf.Write(n.id.id[:])
	}

	var count uint32
	for _, rel := range n.topology {
		count += uint32(len(rel.inputs))
	}
	if err := binary.Write(&buf, binary.LittleEndian, count); err != nil {
		return nil, err
	}

	for peer, rel := range n.topology {
		for pair := range rel.inputs {
			buf.Write(peer.id[:])
			if err := binary.Write(&buf, binary.LittleEndian, pair.Source); err != nil {
				return nil, err
			}
			if err := binary.Write(&buf, binary.LittleEndian, pair.Dest); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// Deserialize replaces the node's name, id and topology from data, then
// rebinds against every currently-live peer and broadcasts the identity
// transition appropriate per §4.11's four-case table.
func (n *Node) Deserialize(data []byte) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	defer n.triggerModelUpdateLocked()

	r := bytes.NewReader(data)

	var nameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return fmt.Errorf("hostgraph: read name length: %w", err)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := r.Read(nameBytes); err != nil {
		return fmt.Errorf("hostgraph: read name: %w", err)
	}
	oldName := n.name
	n.name = string(nameBytes)

	hasID, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("hostgraph: read id flag: %w", err)
	}
	var newID *SerializedHandle
	if hasID == 1 {
		var h SerializedHandle
		if _, err := r.Read(h.id[:]); err != nil {
			return fmt.Errorf("hostgraph: read id: %w", err)
		}
		newID = &h
	}

	n.clearTopologyLocked()

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("hostgraph: read edge count: %w", err)
	}

	for i := uint32(0); i < count; i++ {
		var peer SerializedHandle
		if _, err := r.Read(peer.id[:]); err != nil {
			return fmt.Errorf("hostgraph: read edge peer: %w", err)
		}
		var pair PortPair
		if err := binary.Read(r, binary.LittleEndian, &pair.Source); err != nil {
			return fmt.Errorf("hostgraph: read edge source: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &pair.Dest); err != nil {
			return fmt.Errorf("hostgraph: read edge dest: %w", err)
		}

		rel, ok := n.topology[peer]
		if !ok {
			rel = &relation{inputs: make(map[PortPair]struct{})}
			n.topology[peer] = rel
		}
		rel.inputs[pair] = struct{}{}
	}

	n.expectedResurrect = len(n.topology)

	if count > 0 || n.expectedResurrect > 0 {
		for other := range staticSet {
			n.tryRebuildTopologyLocked(other)
		}
	}

	switch {
	case newID != nil:
		// cases 2 and 4: broadcast Reidentified either way.
		n.id = newID
		n.broadcastDetailChangeLocked(Reidentified)
	case n.id != nil:
		// case 3: losing an id means destroying then recreating nameless.
		n.broadcastDestructLocked()
		n.id = newID
		n.broadcastCreateLocked()
	}
	// case 1 (no id before, none after): no broadcast.

	if oldName != n.name {
		n.broadcastDetailChangeLocked(Rename)
	}

	return nil
}

func (n *Node) hasSerializedRepresentation() bool {
	return n.id != nil
}

func (n *Node) triggerModelUpdateLocked() {
	if n.onModelChanged != nil {
		n.onModelChanged()
	}
}

// resolveLocked returns the live peer for peerID, lazily scanning the
// registry for a matching id if the cached live reference is stale.
func (n *Node) resolveLocked(peerID SerializedHandle) *Node {
	rel, ok := n.topology[peerID]
	if !ok {
		return nil
	}
	if rel.live == nil {
		for other := range staticSet {
			if other.id != nil && other.id.Equal(peerID) {
				rel.live = other
			}
		}
	}
	return rel.live
}

func (n *Node) clearTopologyLocked() {
	for peerID := range n.topology {
		n.resetInstancedTopologyForLocked(peerID, true)
	}
	n.topology = make(map[SerializedHandle]*relation)
}

// tryRebuildTopologyLocked binds other into this node's topology if other's
// serialised id is a recorded (but currently unresolved) peer, replaying
// every stored edge to the mixer.
func (n *Node) tryRebuildTopologyLocked(other *Node) {
	if other == nil || !other.hasSerializedRepresentation() {
		return
	}

	serialized := n.serializeReferenceLocked(other)
	rel, ok := n.topology[serialized]
	if !ok || rel.live != nil {
		return
	}

	rel.live = other
	n.expectedResurrect--

	for pair := range rel.inputs {
		n.mix.Connect(other, pair)
	}
}

// resetInstancedTopologyForLocked drops the live reference for peerID
// (submitting disconnects for its recorded edges) and, if eraseSerializedInfo
// is set, forgets the edges entirely. Returns false if peerID was unknown.
func (n *Node) resetInstancedTopologyForLocked(peerID SerializedHandle, eraseSerializedInfo bool) bool {
	rel, ok := n.topology[peerID]
	if !ok {
		return false
	}

	if rel.live != nil {
		live := rel.live
		rel.live = nil
		if !eraseSerializedInfo {
			n.expectedResurrect++
		}
		for pair := range rel.inputs {
			n.mix.Disconnect(live, pair)
		}
	}

	if eraseSerializedInfo {
		delete(n.topology, peerID)
	}

	return true
}

// serializeReferenceLocked returns other's stable id, generating one lazily
// if it does not yet have one.
func (n *Node) serializeReferenceLocked(other *Node) SerializedHandle {
	if other.id != nil {
		return *other.id
	}
	h := newHandle()
	other.id = &h
	return h
}

func (n *Node) broadcastDetailChangeLocked(change DetailChange) {
	globalVersion++
	n.version = globalVersion
	for other := range staticSet {
		other.onDetailChangeLocked(n, change)
	}
}

func (n *Node) broadcastCreateLocked() {
	for other := range staticSet {
		other.onNodeCreatedLocked(n)
	}
	staticSet[n] = struct{}{}
}

func (n *Node) broadcastDestructLocked() {
	for other := range staticSet {
		other.onNodeDestroyedLocked(n)
	}
	delete(staticSet, n)
}

func (n *Node) onNodeCreatedLocked(created *Node) {
	defer n.triggerModelUpdateLocked()

	if n.expectedResurrect == 0 {
		return
	}
	if !created.hasSerializedRepresentation() {
		return
	}
	n.tryRebuildTopologyLocked(created)
}

func (n *Node) onDetailChangeLocked(changed *Node, change DetailChange) {
	defer n.triggerModelUpdateLocked()

	if change != Reidentified || n.expectedResurrect == 0 || !changed.hasSerializedRepresentation() {
		return
	}
	n.tryRebuildTopologyLocked(changed)
}

func (n *Node) onNodeDestroyedLocked(destroyed *Node) {
	defer n.triggerModelUpdateLocked()

	if !destroyed.hasSerializedRepresentation() {
		return
	}

	serialized := n.serializeReferenceLocked(destroyed)
	n.resetInstancedTopologyForLocked(serialized, false)
}
