// Package ur implements the Uniform Resources (UR) framing and public
// façade specified in [BCR-2020-005]: a single-shot encode/decode pair for
// one-part transfers, and streaming Encoder/Decoder types that drive the
// fountain codec for multi-part transfers over low-bandwidth channels
// such as animated QR codes.
//
// [BCR-2020-005]: https://github.com/BlockchainCommons/Research/blob/master/papers/bcr-2020-005-ur.md
package ur

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"bcur.dev/bc/bytewords"
	"bcur.dev/bc/fountain"
)

var (
	ErrInvalidScheme     = errors.New("ur: invalid scheme")
	ErrTypeUnspecified   = errors.New("ur: unspecified type")
	ErrInvalidCharacters = errors.New("ur: invalid characters in type")
	ErrInvalidIndices    = errors.New("ur: invalid sequence indices")
	ErrNotMultiPart      = errors.New("ur: not a multi-part UR")
)

// Kind distinguishes a single-part UR (the whole payload in one string)
// from a multi-part one (one fragment of a fountain-coded stream).
type Kind int

const (
	SinglePart Kind = iota
	MultiPart
)

// Encode renders data as a single-part UR of the given type:
// "ur:<type>/<bytewords-minimal>".
func Encode(data []byte, typ string) (string, error) {
	if typ == "" {
		return "", ErrTypeUnspecified
	}
	if !validType(typ) {
		return "", ErrInvalidCharacters
	}
	return fmt.Sprintf("ur:%s/%s", typ, bytewords.Encode(data, bytewords.Minimal)), nil
}

// Decode parses uri, rejecting a bad scheme or type, and returns its kind,
// type, and Bytewords-Minimal-decoded payload (with the CRC trailer
// already stripped and verified).
func Decode(uri string) (Kind, string, []byte, error) {
	typ, hasSeq, _, _, body, err := parse(uri)
	if err != nil {
		return 0, "", nil, err
	}
	data, err := bytewords.Decode(body, bytewords.Minimal)
	if err != nil {
		return 0, "", nil, fmt.Errorf("ur: invalid fragment: %w", err)
	}
	if hasSeq {
		return MultiPart, typ, data, nil
	}
	return SinglePart, typ, data, nil
}

func parse(uri string) (typ string, hasSeq bool, seq, seqN int, body string, err error) {
	const prefix = "ur:"
	lower := strings.ToLower(uri)
	if !strings.HasPrefix(lower, prefix) {
		return "", false, 0, 0, "", ErrInvalidScheme
	}
	rest := lower[len(prefix):]
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" {
		return "", false, 0, 0, "", ErrTypeUnspecified
	}
	typ = parts[0]
	if !validType(typ) {
		return "", false, 0, 0, "", ErrInvalidCharacters
	}
	if len(parts) == 2 {
		return typ, false, 0, 0, parts[1], nil
	}
	if _, err := fmt.Sscanf(parts[1], "%d-%d", &seq, &seqN); err != nil ||
		seq < 0 || seqN < 0 || seq > math.MaxUint16 || seqN > math.MaxUint16 {
		return "", false, 0, 0, "", ErrInvalidIndices
	}
	return typ, true, seq, seqN, parts[2], nil
}

func validType(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Encoder streams a message as a sequence of multi-part UR strings, one
// per call to NextPart.
type Encoder struct {
	typ      string
	fountain *fountain.Encoder
}

// NewEncoder builds a streaming Encoder for message, of the given UR type,
// splitting it into fragments no longer than maxFragmentLen.
func NewEncoder(message []byte, maxFragmentLen int, typ string) (*Encoder, error) {
	if typ == "" {
		return nil, ErrTypeUnspecified
	}
	if !validType(typ) {
		return nil, ErrInvalidCharacters
	}
	fe, err := fountain.NewEncoder(message, maxFragmentLen)
	if err != nil {
		return nil, err
	}
	return &Encoder{typ: typ, fountain: fe}, nil
}

// BytesEncoder is a convenience constructor using the standardized
// "bytes" type.
func BytesEncoder(message []byte, maxFragmentLen int) (*Encoder, error) {
	return NewEncoder(message, maxFragmentLen, "bytes")
}

// NextPart returns the next "ur:<type>/<seq>-<seqN>/<body>" string.
func (e *Encoder) NextPart() (string, error) {
	part := e.fountain.NextPart()
	wire, err := part.MarshalCBOR()
	if err != nil {
		return "", fmt.Errorf("ur: %w", err)
	}
	body := bytewords.Encode(wire, bytewords.Minimal)
	return fmt.Sprintf("ur:%s/%d-%d/%s", e.typ, part.Seq, part.SeqCount, body), nil
}

// CurrentIndex returns the sequence number of the last part emitted.
func (e *Encoder) CurrentIndex() int { return e.fountain.CurrentIndex() }

// FragmentCount returns the number of fragments the message was split
// into.
func (e *Encoder) FragmentCount() int { return e.fountain.FragmentCount() }

// Complete reports whether every fragment has been emitted at least once.
func (e *Encoder) Complete() bool { return e.fountain.Complete() }

// Decoder ingests a stream of multi-part UR strings and reassembles the
// original message.
type Decoder struct {
	typ      string
	fountain *fountain.Decoder
}

// NewDecoder returns an empty Decoder ready to receive UR strings.
func NewDecoder() *Decoder {
	return &Decoder{fountain: fountain.NewDecoder()}
}

// Receive parses and ingests one UR string. uri must be a multi-part UR;
// a single-part UR is rejected with ErrNotMultiPart (use Decode directly
// for single-part transfers). A UR whose type disagrees with a
// previously-received one is rejected.
func (d *Decoder) Receive(uri string) error {
	kind, typ, data, err := Decode(uri)
	if err != nil {
		return err
	}
	if kind != MultiPart {
		return ErrNotMultiPart
	}
	if d.typ != "" && d.typ != typ {
		return fmt.Errorf("ur: mismatched type %q, expected %q", typ, d.typ)
	}
	d.typ = typ

	part, err := fountain.UnmarshalPart(data)
	if err != nil {
		return err
	}
	return d.fountain.Receive(part)
}

// Complete reports whether enough parts have been received to recover the
// message.
func (d *Decoder) Complete() bool { return d.fountain.Complete() }

// Message returns the decoded message once Complete.
func (d *Decoder) Message() ([]byte, error) { return d.fountain.Message() }

// Type returns the UR type observed so far, or "" if nothing has been
// received yet.
func (d *Decoder) Type() string { return d.typ }

// Progress estimates decoding completion as a fraction in [0, 1].
func (d *Decoder) Progress() float32 { return d.fountain.Progress() }
