package car

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
)

// cidLinkTag is the CBOR tag for an IPLD CID link.
const cidLinkTag = 42

// Header is the typed form of a CAR v1 header block.
type Header struct {
	Version uint64
	Roots   []cid.Cid
}

type rawHeader struct {
	Version uint64     `cbor:"version"`
	Roots   []cbor.Tag `cbor:"roots"`
}

// headerDecMode bounds header decoding; a header only carries a version and
// a short list of root links.
var headerDecMode cbor.DecMode

func init() {
	var err error
	headerDecMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 16,
		MaxNestedLevels:  4,
	}.DecMode()
	if err != nil {
		panic("car: CBOR header decoder initialization failed: " + err.Error())
	}
}

// ParseHeader decodes the raw header bytes handed to a WithHeaderFunc
// callback. Only the version and root links are interpreted.
func ParseHeader(b []byte) (Header, error) {
	var raw rawHeader
	if err := headerDecMode.Unmarshal(b, &raw); err != nil {
		return Header{}, fmt.Errorf("car: header: %w", err)
	}
	h := Header{Version: raw.Version, Roots: make([]cid.Cid, 0, len(raw.Roots))}
	for i, t := range raw.Roots {
		if t.Number != cidLinkTag {
			return Header{}, fmt.Errorf("car: header: root %d has tag %d, want %d", i, t.Number, cidLinkTag)
		}
		link, ok := t.Content.([]byte)
		if !ok || len(link) < 2 || link[0] != 0x00 {
			return Header{}, fmt.Errorf("car: header: root %d is not a CID link", i)
		}
		id, err := cid.Cast(link[1:])
		if err != nil {
			return Header{}, fmt.Errorf("car: header: root %d: %w", i, err)
		}
		h.Roots = append(h.Roots, id)
	}
	return h, nil
}
