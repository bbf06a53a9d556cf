package decoder

import "encoding/binary"

// MaxOrders mirrors engine.MaxOrders.
const MaxOrders = 128

// orderSlotSize is order_id(16) + client_order_id(8) + side(1) + padding(7).
const orderSlotSize = 32

// DecodedOrderSlot is one decoded entry of an OpenOrders account's slot
// array; empty when OrderID is all-zero.
type DecodedOrderSlot struct {
	OrderID       [16]byte
	ClientOrderID uint64
	Side          uint8
}

// OpenOrders is the decoded view of a per-(market, owner) account.
type OpenOrders struct {
	Bump            uint8
	Market          [32]byte
	Owner           [32]byte
	Delegate        [32]byte
	BaseLocked      uint64
	QuoteLocked     uint64
	BaseFree        uint64
	QuoteFree       uint64
	ReferrerRebates uint64
	NumOrders       uint32
	Orders          []DecodedOrderSlot
}

func parseOpenOrders(c *cursor) (*OpenOrders, error) {
	o := &OpenOrders{}
	var err error
	if o.Bump, err = c.u8(); err != nil {
		return nil, err
	}
	if err := c.skip(7); err != nil {
		return nil, err
	}
	for _, dst := range []*[32]byte{&o.Market, &o.Owner, &o.Delegate} {
		v, err := c.bytes32()
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	for _, dst := range []*uint64{&o.BaseLocked, &o.QuoteLocked, &o.BaseFree, &o.QuoteFree, &o.ReferrerRebates} {
		v, err := c.u64()
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if o.NumOrders, err = c.u32(); err != nil {
		return nil, err
	}
	if err := c.skip(4); err != nil {
		return nil, err
	}

	o.Orders = make([]DecodedOrderSlot, 0, MaxOrders)
	for i := 0; i < MaxOrders; i++ {
		slot := DecodedOrderSlot{}
		if slot.OrderID, err = c.bytes16(); err != nil {
			return nil, err
		}
		if slot.ClientOrderID, err = c.u64(); err != nil {
			return nil, err
		}
		if slot.Side, err = c.u8(); err != nil {
			return nil, err
		}
		if err := c.skip(7); err != nil {
			return nil, err
		}
		o.Orders = append(o.Orders, slot)
	}
	return o, nil
}

// EncodeOpenOrders is a test/tooling helper producing the full byte
// layout parseOpenOrders expects.
func EncodeOpenOrders(o *OpenOrders) []byte {
	buf := make([]byte, 0, 8+8+32*3+8*5+4+4+orderSlotSize*MaxOrders)
	buf = append(buf, discOpenOrders[:]...)
	buf = append(buf, o.Bump)
	buf = append(buf, make([]byte, 7)...)
	for _, b := range [][32]byte{o.Market, o.Owner, o.Delegate} {
		buf = append(buf, b[:]...)
	}
	var tmp8 [8]byte
	for _, v := range []uint64{o.BaseLocked, o.QuoteLocked, o.BaseFree, o.QuoteFree, o.ReferrerRebates} {
		binary.LittleEndian.PutUint64(tmp8[:], v)
		buf = append(buf, tmp8[:]...)
	}
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], o.NumOrders)
	buf = append(buf, tmp4[:]...)
	buf = append(buf, make([]byte, 4)...)
	for i := 0; i < MaxOrders; i++ {
		var slot DecodedOrderSlot
		if i < len(o.Orders) {
			slot = o.Orders[i]
		}
		buf = append(buf, slot.OrderID[:]...)
		binary.LittleEndian.PutUint64(tmp8[:], slot.ClientOrderID)
		buf = append(buf, tmp8[:]...)
		buf = append(buf, slot.Side)
		buf = append(buf, make([]byte, 7)...)
	}
	return buf
}
