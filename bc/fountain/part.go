package fountain

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Part is a single emitted fountain-coded unit: either a raw fragment (if
// its chosen index set is a singleton) or the XOR of several fragments.
type Part struct {
	Seq      uint32
	SeqCount uint32
	MsgLen   uint32
	Checksum uint32
	Payload  []byte
}

// wireForm is Part's CBOR representation: a definite-length array of
// exactly five elements, in order.
type wireForm struct {
	_        struct{} `cbor:",toarray"`
	Seq      uint32
	SeqCount uint32
	MsgLen   uint32
	Checksum uint32
	Payload  []byte
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

var decMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// MarshalCBOR encodes p as a deterministic, definite-length 5-element CBOR
// array.
func (p Part) MarshalCBOR() ([]byte, error) {
	data, err := encMode.Marshal(wireForm{
		Seq:      p.Seq,
		SeqCount: p.SeqCount,
		MsgLen:   p.MsgLen,
		Checksum: p.Checksum,
		Payload:  p.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCborEncode, err)
	}
	return data, nil
}

// UnmarshalPart strictly decodes data as a Part: the array must have
// exactly five elements, byte strings must be definite-length, and the
// unsigned fields must fit in 32 bits.
func UnmarshalPart(data []byte) (Part, error) {
	var w wireForm
	if err := decMode.Unmarshal(data, &w); err != nil {
		return Part{}, fmt.Errorf("%w: %v", ErrCborDecode, err)
	}
	return Part{
		Seq:      w.Seq,
		SeqCount: w.SeqCount,
		MsgLen:   w.MsgLen,
		Checksum: w.Checksum,
		Payload:  w.Payload,
	}, nil
}

// indices returns the fragment indices this part combines.
func (p Part) indices() []int {
	return chooseIndices(p.Seq, int(p.SeqCount), p.Checksum)
}

// simple reports whether p carries a single fragment unmodified.
func (p Part) simple() bool {
	return len(p.indices()) == 1
}
