package decoder

import "encoding/binary"

// Market mirrors engine.Market's on-the-wire byte layout, decoded
// independently of the engine package so the decoder has no compile-time
// dependency on matching-engine internals — it only needs the documented
// byte layout.
type Market struct {
	Bump           uint8
	Status         uint8
	BaseMint       [32]byte
	QuoteMint      [32]byte
	BaseVault      [32]byte
	QuoteVault     [32]byte
	BidsKey        [32]byte
	AsksKey        [32]byte
	EventQueueKey  [32]byte
	Authority      [32]byte
	FeeDestination [32]byte
	BaseLotSize    uint64
	QuoteLotSize   uint64
	TickSize       uint64
	MinOrderSize   uint64
	TakerFeeBps    uint16
	MakerFeeBps    int16
	SeqNum         uint64
}

const marketReservedTail = 64

func parseMarket(c *cursor) (*Market, error) {
	m := &Market{}
	var err error
	if m.Bump, err = c.u8(); err != nil {
		return nil, err
	}
	if m.Status, err = c.u8(); err != nil {
		return nil, err
	}
	for _, dst := range []*[32]byte{
		&m.BaseMint, &m.QuoteMint, &m.BaseVault, &m.QuoteVault,
		&m.BidsKey, &m.AsksKey, &m.EventQueueKey, &m.Authority, &m.FeeDestination,
	} {
		v, err := c.bytes32()
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	for _, dst := range []*uint64{&m.BaseLotSize, &m.QuoteLotSize, &m.TickSize, &m.MinOrderSize} {
		v, err := c.u64()
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if m.TakerFeeBps, err = c.u16(); err != nil {
		return nil, err
	}
	if m.MakerFeeBps, err = c.i16(); err != nil {
		return nil, err
	}
	if m.SeqNum, err = c.u64(); err != nil {
		return nil, err
	}
	if err := c.skip(marketReservedTail); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeMarket produces the bit-exact byte layout parseMarket expects —
// used by tests and by any future writer of on-chain-equivalent account
// snapshots.
func EncodeMarket(m *Market) []byte {
	buf := make([]byte, 0, 8+2+32*9+8*4+2+2+8+marketReservedTail)
	buf = append(buf, discMarket[:]...)
	buf = append(buf, m.Bump, m.Status)
	for _, b := range [][32]byte{
		m.BaseMint, m.QuoteMint, m.BaseVault, m.QuoteVault,
		m.BidsKey, m.AsksKey, m.EventQueueKey, m.Authority, m.FeeDestination,
	} {
		buf = append(buf, b[:]...)
	}
	var tmp8 [8]byte
	for _, v := range []uint64{m.BaseLotSize, m.QuoteLotSize, m.TickSize, m.MinOrderSize} {
		binary.LittleEndian.PutUint64(tmp8[:], v)
		buf = append(buf, tmp8[:]...)
	}
	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], m.TakerFeeBps)
	buf = append(buf, tmp2[:]...)
	binary.LittleEndian.PutUint16(tmp2[:], uint16(m.MakerFeeBps))
	buf = append(buf, tmp2[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], m.SeqNum)
	buf = append(buf, tmp8[:]...)
	buf = append(buf, make([]byte, marketReservedTail)...)
	return buf
}
