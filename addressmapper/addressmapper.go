package addressmapper

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aldas/go-j1939"
)

// Node is controller application seen on the bus. Identified by its NAME which is acquired from address claimed
// (PGN 60928) messages.
// Related info about SAE1939 Addresses https://embeddedflakes.com/network-management-in-sae-j1939/
type Node struct {
	// Source is address currently claimed by the node. AddressNull means node has lost its address or could not claim one.
	Source uint8      `json:"source"`
	Name   j1939.Name `json:"name"`

	// Claimed is when node claimed its current address
	Claimed time.Time `json:"claimed"`
	// LastSeen is when last frame was sent from address of this node
	LastSeen time.Time `json:"last_seen"`
}

type Nodes []Node

// AddressMapper passively observes bus traffic and keeps track which NAME owns which source address. Contention
// between NAMEs claiming same address is resolved by NAME priority (numerically lower NAME wins). Mapper never
// transmits anything.
type AddressMapper struct {
	mutex sync.Mutex

	knownNodes   map[j1939.Name]*Node
	address2node [256]*busSlot
}

type busSlot struct {
	node *Node
}

func NewAddressMapper() *AddressMapper {
	return &AddressMapper{
		mutex:      sync.Mutex{},
		knownNodes: make(map[j1939.Name]*Node),
	}
}

// Process updates bus state from frame. Returns true when address ownership changed.
func (m *AddressMapper) Process(frame j1939.Frame) (bool, error) {
	id, ok := frame.ExtendedID()
	if !ok {
		return false, nil // J1939 uses only extended identifiers
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	source := id.SourceAddress()
	var slot *busSlot
	if source >= j1939.AddressNull { // addresses 254 and 255 have special meaning and does not represent actual address for node
		slot = new(busSlot)
	} else {
		slot = m.address2node[source]
		if slot == nil {
			slot = new(busSlot)
			m.address2node[source] = slot
		}
		if slot.node != nil {
			slot.node.LastSeen = frame.Time
		}
	}

	if id.PGN() != j1939.PGNAddressClaimed {
		return false, nil
	}
	return m.processAddressClaim(slot, source, frame)
}

func (m *AddressMapper) processAddressClaim(slot *busSlot, source uint8, frame j1939.Frame) (bool, error) {
	if source == j1939.AddressGlobal {
		return false, errors.New("address claimed frame can not be sent from global address")
	}
	if frame.Length != 8 {
		return false, fmt.Errorf("address claimed frame must have 8 bytes of data, got: %v", frame.Length)
	}
	payload := frame.Payload()
	name, err := payload.DecodeName(0)
	if err != nil {
		return false, fmt.Errorf("failed to decode address claimed NAME, err: %w", err)
	}

	currentNode, ok := m.knownNodes[name]
	if !ok { // is new unseen device so create it
		currentNode = &Node{
			Source: j1939.AddressNull,
			Name:   name,
		}
		m.knownNodes[name] = currentNode
	}
	currentNode.LastSeen = frame.Time

	if source == j1939.AddressNull {
		// cannot claim address. Node sends address claimed with null address when it has failed to claim one
		return m.unassign(currentNode), nil
	}

	if slot.node == currentNode {
		return false, nil // repeated claim for the same address
	}
	if slot.node != nil && !currentNode.Name.HasPriorityOver(slot.node.Name) {
		// existing owner wins the contention and claimant must look for another address
		return m.unassign(currentNode), nil
	}

	m.unassign(currentNode) // node moved to a new address
	if slot.node != nil {
		slot.node.Source = j1939.AddressNull // owner lost the address to higher priority NAME
	}
	// a) we probably started to listen already powered-up and claimed network. assume that this name is actually
	//    (settled by claim process) owner of this address
	// b) by J1939 address claim logic this node now claims existing slot as its name is lower
	currentNode.Source = source
	currentNode.Claimed = frame.Time
	slot.node = currentNode
	return true, nil
}

func (m *AddressMapper) unassign(node *Node) bool {
	if node.Source >= j1939.AddressNull {
		return false
	}
	if slot := m.address2node[node.Source]; slot != nil && slot.node == node {
		slot.node = nil
	}
	node.Source = j1939.AddressNull
	return true
}

// Nodes returns all known (current and previous) nodes from bus
func (m *AddressMapper) Nodes() Nodes {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := make(Nodes, 0, len(m.knownNodes))
	for _, n := range m.knownNodes {
		result = append(result, *n)
	}
	return result
}

// NodesInUseBySource returns list of Nodes that are currently in use (assigned valid source address).
func (m *AddressMapper) NodesInUseBySource() map[uint8]Node {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := make(map[uint8]Node)
	for _, n := range m.knownNodes {
		if n.Source >= j1939.AddressNull {
			continue
		}
		result[n.Source] = *n
	}
	return result
}

// ErrUnknownAddress is returned when address has no claimed owner
var ErrUnknownAddress = errors.New("address has no known owner")

// NodeBySource returns node currently owning given address.
func (m *AddressMapper) NodeBySource(source uint8) (Node, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	slot := m.address2node[source]
	if slot == nil || slot.node == nil {
		return Node{}, ErrUnknownAddress
	}
	return *slot.node, nil
}
