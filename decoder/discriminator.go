package decoder

// AccountKind identifies which account type a discriminator dispatched to.
type AccountKind uint8

const (
	KindUnknown AccountKind = iota
	KindMarket
	KindBookSide
	KindEventQueue
	KindOpenOrders
)

// 8-byte discriminators leading every account. Unlike an Anchor-style
// sighash, these are fixed tags — this module owns both sides of the
// wire format, so there is no external scheme to match.
var (
	discMarket     = [8]byte{'m', 'k', 't', 0, 0, 0, 0, 1}
	discBookSide   = [8]byte{'b', 'k', 's', 'd', 0, 0, 0, 1}
	discEventQueue = [8]byte{'e', 'v', 'n', 't', 'q', 0, 0, 1}
	discOpenOrders = [8]byte{'o', 'p', 'n', 'o', 'r', 'd', 0, 1}
)

// ParsedAccount is the decoder's output: exactly one of the typed fields
// is populated, selected by Kind.
type ParsedAccount struct {
	Kind          AccountKind
	Discriminator [8]byte // set when Kind == KindUnknown
	Market        *Market
	BookSide      *BookSide
	EventQueue    *EventQueue
	OpenOrders    *OpenOrders
}

// Parse reads the 8-byte leading discriminator and dispatches to the
// matching type parser. An unrecognized discriminator is not an error —
// it is reported as KindUnknown so callers can count and skip it.
func Parse(buf []byte) (ParsedAccount, error) {
	c := newCursor(buf)
	var disc [8]byte
	for i := range disc {
		b, err := c.u8()
		if err != nil {
			return ParsedAccount{}, err
		}
		disc[i] = b
	}

	switch disc {
	case discMarket:
		m, err := parseMarket(c)
		if err != nil {
			return ParsedAccount{}, err
		}
		return ParsedAccount{Kind: KindMarket, Market: m}, nil
	case discBookSide:
		b, err := parseBookSide(c)
		if err != nil {
			return ParsedAccount{}, err
		}
		return ParsedAccount{Kind: KindBookSide, BookSide: b}, nil
	case discEventQueue:
		q, err := parseEventQueue(c)
		if err != nil {
			return ParsedAccount{}, err
		}
		return ParsedAccount{Kind: KindEventQueue, EventQueue: q}, nil
	case discOpenOrders:
		o, err := parseOpenOrders(c)
		if err != nil {
			return ParsedAccount{}, err
		}
		return ParsedAccount{Kind: KindOpenOrders, OpenOrders: o}, nil
	default:
		return ParsedAccount{Kind: KindUnknown, Discriminator: disc}, nil
	}
}
