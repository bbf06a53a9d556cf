package decoder

import "encoding/binary"

// EventHeaderSize is the fixed EventQueue header size from the byte
// layout table.
const EventHeaderSize = 120

// EventSlotSize is the fixed size of each tag-prefixed event slot.
const EventSlotSize = 160

// DecodedEventKind mirrors engine.EventKind's wire tag.
type DecodedEventKind uint8

const (
	DecodedEventEmpty DecodedEventKind = iota
	DecodedEventFill
	DecodedEventOut
)

// DecodedEvent is the decoder's flattened view of one event slot; both
// Fill and Out payload fields are present, selected by Kind.
type DecodedEvent struct {
	Kind DecodedEventKind

	TakerSide          uint8
	Maker              [32]byte
	MakerOrderID       [16]byte
	MakerClientOrderID uint64
	Taker              [32]byte
	TakerOrderID       [16]byte
	TakerClientOrderID uint64
	Price              uint64
	Quantity           uint64
	TakerFee           uint64
	MakerRebate        int64

	Side          uint8
	Owner         [32]byte
	OrderID       [16]byte
	ClientOrderID uint64
	BaseReleased  uint64
	QuoteReleased uint64
	Reason        uint8
}

// EventQueue is the decoded view of an event-queue account: header
// metadata plus the live events in FIFO order (head-first).
type EventQueue struct {
	MarketKey [32]byte
	Head      uint32
	Count     uint32
	SeqNum    uint64
	Events    []DecodedEvent
}

func parseEventQueue(c *cursor) (*EventQueue, error) {
	q := &EventQueue{}
	var err error
	if _, err = c.u8(); err != nil { // bump
		return nil, err
	}
	if err := c.skip(7); err != nil {
		return nil, err
	}
	if q.MarketKey, err = c.bytes32(); err != nil {
		return nil, err
	}
	if q.Head, err = c.u32(); err != nil {
		return nil, err
	}
	if q.Count, err = c.u32(); err != nil {
		return nil, err
	}
	if q.SeqNum, err = c.u64(); err != nil {
		return nil, err
	}
	if err := c.skip(64); err != nil { // reserved
		return nil, err
	}

	// The header declares where live events start (Head) and how many
	// there are (Count); the caller-supplied buffer must hold at least
	// that many EventSlotSize-byte slots starting at the current cursor
	// position, addressed modulo the slot count implied by the buffer.
	remaining := len(c.buf) - c.pos
	capacitySlots := remaining / EventSlotSize
	if capacitySlots == 0 && q.Count > 0 {
		return nil, &DataTooShortError{Expected: EventSlotSize, Actual: remaining}
	}

	q.Events = make([]DecodedEvent, 0, q.Count)
	for i := uint32(0); i < q.Count; i++ {
		slotIdx := (q.Head + i) % uint32(capacitySlots)
		slotStart := c.pos + int(slotIdx)*EventSlotSize
		ev, err := decodeEventSlot(c.buf, slotStart)
		if err != nil {
			return nil, err
		}
		q.Events = append(q.Events, ev)
	}
	return q, nil
}

func decodeEventSlot(buf []byte, start int) (DecodedEvent, error) {
	if start+EventSlotSize > len(buf) {
		return DecodedEvent{}, &DataTooShortError{Expected: start + EventSlotSize, Actual: len(buf)}
	}
	sc := &cursor{buf: buf[start : start+EventSlotSize]}
	tag, err := sc.u8()
	if err != nil {
		return DecodedEvent{}, err
	}
	ev := DecodedEvent{Kind: DecodedEventKind(tag)}
	switch ev.Kind {
	case DecodedEventFill:
		if ev.TakerSide, err = sc.u8(); err != nil {
			return ev, err
		}
		if err := sc.skip(6); err != nil {
			return ev, err
		}
		if ev.Maker, err = sc.bytes32(); err != nil {
			return ev, err
		}
		if ev.MakerOrderID, err = sc.bytes16(); err != nil {
			return ev, err
		}
		if ev.MakerClientOrderID, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.Taker, err = sc.bytes32(); err != nil {
			return ev, err
		}
		if ev.TakerOrderID, err = sc.bytes16(); err != nil {
			return ev, err
		}
		if ev.TakerClientOrderID, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.Price, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.Quantity, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.TakerFee, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.MakerRebate, err = sc.i64(); err != nil {
			return ev, err
		}
	case DecodedEventOut:
		if ev.Side, err = sc.u8(); err != nil {
			return ev, err
		}
		if ev.Reason, err = sc.u8(); err != nil {
			return ev, err
		}
		if err := sc.skip(5); err != nil {
			return ev, err
		}
		if ev.Owner, err = sc.bytes32(); err != nil {
			return ev, err
		}
		if ev.OrderID, err = sc.bytes16(); err != nil {
			return ev, err
		}
		if ev.ClientOrderID, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.BaseReleased, err = sc.u64(); err != nil {
			return ev, err
		}
		if ev.QuoteReleased, err = sc.u64(); err != nil {
			return ev, err
		}
	}
	return ev, nil
}

// EncodeEventQueueHeader is a test/tooling helper producing the header
// bytes parseEventQueue expects, to be followed by capacitySlots *
// EventSlotSize bytes of event slots.
func EncodeEventQueueHeader(marketKey [32]byte, head, count uint32, seqNum uint64) []byte {
	buf := make([]byte, 0, EventHeaderSize+8)
	buf = append(buf, discEventQueue[:]...)
	buf = append(buf, 0) // bump
	buf = append(buf, make([]byte, 7)...)
	buf = append(buf, marketKey[:]...)
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], head)
	buf = append(buf, tmp4[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], count)
	buf = append(buf, tmp4[:]...)
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], seqNum)
	buf = append(buf, tmp8[:]...)
	buf = append(buf, make([]byte, 64)...)
	return buf
}

// EncodeFillSlot produces one 160-byte Fill event slot.
func EncodeFillSlot(ev DecodedEvent) []byte {
	buf := make([]byte, EventSlotSize)
	buf[0] = byte(DecodedEventFill)
	buf[1] = ev.TakerSide
	copy(buf[8:40], ev.Maker[:])
	copy(buf[40:56], ev.MakerOrderID[:])
	binary.LittleEndian.PutUint64(buf[56:64], ev.MakerClientOrderID)
	copy(buf[64:96], ev.Taker[:])
	copy(buf[96:112], ev.TakerOrderID[:])
	binary.LittleEndian.PutUint64(buf[112:120], ev.TakerClientOrderID)
	binary.LittleEndian.PutUint64(buf[120:128], ev.Price)
	binary.LittleEndian.PutUint64(buf[128:136], ev.Quantity)
	binary.LittleEndian.PutUint64(buf[136:144], ev.TakerFee)
	binary.LittleEndian.PutUint64(buf[144:152], uint64(ev.MakerRebate))
	return buf
}

// EncodeOutSlot produces one 160-byte Out event slot.
func EncodeOutSlot(ev DecodedEvent) []byte {
	buf := make([]byte, EventSlotSize)
	buf[0] = byte(DecodedEventOut)
	buf[1] = ev.Side
	buf[2] = ev.Reason
	copy(buf[8:40], ev.Owner[:])
	copy(buf[40:56], ev.OrderID[:])
	binary.LittleEndian.PutUint64(buf[56:64], ev.ClientOrderID)
	binary.LittleEndian.PutUint64(buf[64:72], ev.BaseReleased)
	binary.LittleEndian.PutUint64(buf[72:80], ev.QuoteReleased)
	return buf
}
