package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// DagCBORSHA256 returns the CIDv1 (dag-cbor + sha2-256) of data, the form
// AT Protocol repositories use for records and MST nodes.
func DagCBORSHA256(data []byte) cid.Cid {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return cid.Undef
	}
	return cid.NewCidV1(cid.DagCBOR, sum)
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

var codecNames = map[uint64]string{
	cid.Raw:         "raw",
	cid.DagProtobuf: "dag-pb",
	cid.DagCBOR:     "dag-cbor",
}

// Describe returns the codec and multihash function names of id, e.g.
// ("dag-cbor", "sha2-256"). Unknown codes are returned as empty strings.
func Describe(id cid.Cid) (codec string, hash string) {
	if !id.Defined() {
		return "", ""
	}
	codec = codecNames[id.Type()]
	dm, err := multihash.Decode(id.Hash())
	if err != nil {
		return codec, ""
	}
	return codec, multihash.Codes[dm.Code]
}
