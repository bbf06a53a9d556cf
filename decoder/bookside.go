package decoder

import "encoding/binary"

// NodeTag mirrors the book tree's slab discriminator.
type NodeTag uint8

const (
	NodeUninit NodeTag = iota
	NodeInner
	NodeLeaf
	NodeFree
)

// NodeSize is the fixed slab slot size, padded to the byte layout table.
const NodeSize = 88

// DecodedLeaf is a flattened leaf extracted from a BookSide's node slab;
// the decoder does not reconstruct tree topology, only the leaf list —
// callers (the aggregator) re-aggregate by price.
type DecodedLeaf struct {
	OrderID       [16]byte
	OwnerSlot     uint8
	TimeInForce   uint8
	Owner         [32]byte
	Quantity      uint64
	ClientOrderID uint64
}

// BookSide is the decoded view of one side's account: header metadata
// plus the flat leaf list.
type BookSide struct {
	MarketKey    [32]byte
	IsBids       bool
	LeafCount    uint32
	FreeListHead uint32
	Root         uint32
	Leaves       []DecodedLeaf
}

func parseBookSide(c *cursor) (*BookSide, error) {
	b := &BookSide{}
	var err error
	if b.MarketKey, err = c.bytes32(); err != nil {
		return nil, err
	}
	isBids, err := c.u8()
	if err != nil {
		return nil, err
	}
	b.IsBids = isBids != 0
	if err := c.skip(3); err != nil { // padding
		return nil, err
	}
	if b.LeafCount, err = c.u32(); err != nil {
		return nil, err
	}
	if b.FreeListHead, err = c.u32(); err != nil {
		return nil, err
	}
	if b.Root, err = c.u32(); err != nil {
		return nil, err
	}
	nodeCount, err := c.u32()
	if err != nil {
		return nil, err
	}

	b.Leaves = make([]DecodedLeaf, 0, b.LeafCount)
	for i := uint32(0); i < nodeCount; i++ {
		start := c.pos
		tagByte, err := c.u8()
		if err != nil {
			return nil, err
		}
		switch NodeTag(tagByte) {
		case NodeLeaf:
			leaf := DecodedLeaf{}
			if leaf.OwnerSlot, err = c.u8(); err != nil {
				return nil, err
			}
			if leaf.TimeInForce, err = c.u8(); err != nil {
				return nil, err
			}
			if err := c.skip(5); err != nil {
				return nil, err
			}
			if leaf.OrderID, err = c.bytes16(); err != nil {
				return nil, err
			}
			if leaf.Owner, err = c.bytes32(); err != nil {
				return nil, err
			}
			if leaf.Quantity, err = c.u64(); err != nil {
				return nil, err
			}
			if leaf.ClientOrderID, err = c.u64(); err != nil {
				return nil, err
			}
			b.Leaves = append(b.Leaves, leaf)
		default:
			// Inner, Free, and Uninit slots carry no information the
			// aggregator needs; skip to the next slot boundary.
		}
		consumed := c.pos - start
		if consumed > NodeSize {
			return nil, &InvalidDataError{Field: "node_slot"}
		}
		if err := c.skip(NodeSize - consumed); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// EncodeBookSideHeader is a test/tooling helper producing the header
// bytes parseBookSide expects, to be followed by NodeSize-byte node slots.
func EncodeBookSideHeader(marketKey [32]byte, isBids bool, leafCount, freeListHead, root, nodeCount uint32) []byte {
	buf := make([]byte, 0, 8+32+4+4+4+4+4)
	buf = append(buf, discBookSide[:]...)
	buf = append(buf, marketKey[:]...)
	if isBids {
		buf = append(buf, 1, 0, 0, 0)
	} else {
		buf = append(buf, 0, 0, 0, 0)
	}
	var tmp4 [4]byte
	for _, v := range []uint32{leafCount, freeListHead, root, nodeCount} {
		binary.LittleEndian.PutUint32(tmp4[:], v)
		buf = append(buf, tmp4[:]...)
	}
	return buf
}

// EncodeLeafSlot produces one 88-byte leaf node slot.
func EncodeLeafSlot(leaf DecodedLeaf) []byte {
	buf := make([]byte, NodeSize)
	buf[0] = byte(NodeLeaf)
	buf[1] = leaf.OwnerSlot
	buf[2] = leaf.TimeInForce
	copy(buf[8:24], leaf.OrderID[:])
	copy(buf[24:56], leaf.Owner[:])
	binary.LittleEndian.PutUint64(buf[56:64], leaf.Quantity)
	binary.LittleEndian.PutUint64(buf[64:72], leaf.ClientOrderID)
	return buf
}

// EncodeEmptySlot produces an 88-byte slot with the given tag and no
// payload (Inner/Free/Uninit slots the aggregator does not need).
func EncodeEmptySlot(tag NodeTag) []byte {
	buf := make([]byte, NodeSize)
	buf[0] = byte(tag)
	return buf
}
