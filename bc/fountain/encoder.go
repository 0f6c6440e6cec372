package fountain

// Encoder splits a message into fixed-size fragments and emits an
// unbounded stream of Parts: the first FragmentCount parts are the pure
// fragments in order, and every part after that is a pseudo-random XOR
// combination chosen by chooseIndices.
type Encoder struct {
	fragments [][]byte
	msgLen    int
	checksum  uint32
	seq       uint32
}

// NewEncoder builds an Encoder for message, splitting it into fragments no
// longer than maxFragmentLen. The fragment count N = ceil(len(message) /
// maxFragmentLen) and fragment length L = ceil(len(message) / N) are
// chosen so that N*L >= len(message) with the shortfall confined to a
// single trailing zero-padded fragment.
func NewEncoder(message []byte, maxFragmentLen int) (*Encoder, error) {
	if len(message) == 0 {
		return nil, ErrEmptyMessage
	}
	if maxFragmentLen <= 0 {
		return nil, ErrInvalidFragmentLen
	}
	n := (len(message) + maxFragmentLen - 1) / maxFragmentLen
	fragLen := (len(message) + n - 1) / n

	fragments := make([][]byte, n)
	for i := range fragments {
		frag := make([]byte, fragLen)
		start := i * fragLen
		if start < len(message) {
			end := start + fragLen
			if end > len(message) {
				end = len(message)
			}
			copy(frag, message[start:end])
		}
		fragments[i] = frag
	}

	return &Encoder{
		fragments: fragments,
		msgLen:    len(message),
		checksum:  Checksum(message),
	}, nil
}

// NextPart advances the sequence counter and returns the next part.
func (e *Encoder) NextPart() Part {
	e.seq++
	idxs := chooseIndices(e.seq, len(e.fragments), e.checksum)
	payload := append([]byte(nil), e.fragments[idxs[0]]...)
	for _, idx := range idxs[1:] {
		payload = xor(payload, e.fragments[idx])
	}
	return Part{
		Seq:      e.seq,
		SeqCount: uint32(len(e.fragments)),
		MsgLen:   uint32(e.msgLen),
		Checksum: e.checksum,
		Payload:  payload,
	}
}

// CurrentIndex returns the sequence number of the last part emitted.
func (e *Encoder) CurrentIndex() int { return int(e.seq) }

// FragmentCount returns N, the number of fragments the message was split
// into.
func (e *Encoder) FragmentCount() int { return len(e.fragments) }

// Complete reports whether every fragment has been emitted at least once
// as a pure, unmixed part.
func (e *Encoder) Complete() bool { return int(e.seq) >= len(e.fragments) }
