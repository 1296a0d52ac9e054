package hostgraph

import "testing"

func findPeerHandle(t *testing.T, m Model, name string) SerializedHandle {
	t.Helper()
	for _, v := range m.Nodes {
		if v.Name == name {
			return v.Node
		}
	}
	t.Fatalf("no node named %q in model", name)
	return SerializedHandle{}
}

func TestNewBroadcastsCreateToExistingNodes(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()

	notified := false
	a.OnModelChanged(func() { notified = true })

	b := New("b", 2, nil)
	defer b.Close()

	if !notified {
		t.Error("a was not notified when b was created")
	}
}

func TestCloseRemovesNodeFromSubsequentModels(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)

	b.Close()

	m := a.GetModel()
	for _, v := range m.Nodes {
		if v.Name == "b" {
			t.Fatal("closed node b still present in model")
		}
	}
}

func TestGetModelIncludesHostIndex(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)
	defer b.Close()

	m := a.GetModel()
	if m.HostIndex < 0 || m.HostIndex >= len(m.Nodes) {
		t.Fatalf("HostIndex = %d out of range [0,%d)", m.HostIndex, len(m.Nodes))
	}
	if m.Nodes[m.HostIndex].Name != "a" {
		t.Errorf("node at HostIndex = %q, want %q", m.Nodes[m.HostIndex].Name, "a")
	}
}

func TestConnectThenDisconnectRoundTrips(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)
	defer b.Close()

	bHandle := findPeerHandle(t, a.GetModel(), "b")
	pair := PortPair{Source: 0, Dest: 1}

	if !a.Connect(bHandle, pair) {
		t.Fatal("Connect() = false, want true for a new edge")
	}
	if a.Connect(bHandle, pair) {
		t.Fatal("second Connect() with the same edge = true, want false")
	}

	if !a.Disconnect(bHandle, pair) {
		t.Fatal("Disconnect() = false, want true for an existing edge")
	}
	if a.Disconnect(bHandle, pair) {
		t.Fatal("second Disconnect() = true, want false once the edge is gone")
	}
}

func TestConnectRecordsEdgeInModel(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)
	defer b.Close()

	bHandle := findPeerHandle(t, a.GetModel(), "b")
	pair := PortPair{Source: 0, Dest: 1}
	a.Connect(bHandle, pair)

	m := a.GetModel()
	var found bool
	for _, v := range m.Nodes {
		if v.Node.Equal(bHandle) {
			for i := v.ConnectionOffset; i < v.ConnectionOffset+v.ConnectionCount; i++ {
				if m.Connections[i] == pair {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("connected pair not present in model's Connections slice")
	}
}

func TestSerializeDeserializeRoundTripsNameAndEdges(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)
	defer b.Close()

	bHandle := findPeerHandle(t, a.GetModel(), "b")
	pair := PortPair{Source: 3, Dest: 4}
	a.Connect(bHandle, pair)

	data, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	c := New("placeholder", 2, nil)
	defer c.Close()
	if err := c.Deserialize(data); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	if c.name != "a" {
		t.Errorf("name after Deserialize() = %q, want %q", c.name, "a")
	}
	rel, ok := c.topology[bHandle]
	if !ok {
		t.Fatal("deserialized node has no edge recorded to b")
	}
	if _, ok := rel.inputs[pair]; !ok {
		t.Error("deserialized edge does not contain the original pair")
	}
}

func TestDeserializeResurrectsLiveEdgeAfterIdentityChange(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	b := New("b", 2, nil)

	bHandle := findPeerHandle(t, a.GetModel(), "b")
	pair := PortPair{Source: 1, Dest: 2}
	a.Connect(bHandle, pair)

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	b.Close() // b's edge into a goes stale

	c := New("b-reborn", 2, nil)
	defer c.Close()
	if err := c.Deserialize(data); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	rel, ok := a.topology[bHandle]
	if !ok {
		t.Fatal("a lost its recorded edge to the old b identity")
	}
	if rel.live != c {
		t.Error("a's edge to the resurrected identity did not rebind to the new node")
	}
}

func TestDeserializeWithNoPriorOrNewIDBroadcastsNothing(t *testing.T) {
	a := New("a", 2, nil)
	defer a.Close()
	bystander := New("bystander", 2, nil)
	defer bystander.Close()

	notified := false
	bystander.OnModelChanged(func() { notified = true })

	emptyNode := New("a", 2, nil) // same name as a: isolates the id-transition broadcast from a Rename broadcast
	data, err := emptyNode.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	emptyNode.Close()
	notified = false

	if err := a.Deserialize(data); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	if notified {
		t.Error("bystander was notified of a detail change for a no-id to no-id transition")
	}
}
