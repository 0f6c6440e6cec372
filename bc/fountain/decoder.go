package fountain

// Decoder ingests Parts and incrementally solves the XOR system they
// describe, recovering the original fragments as soon as enough
// constraints have been gathered. This is Gaussian elimination over GF(2)
// in incremental form: a simple part is an identity row, a complex part is
// a partially reduced row whose pivot set is its index set, and draining
// the queue is row reduction against newly solved rows.
type Decoder struct {
	started  bool
	seqCount int
	msgLen   int
	checksum uint32
	fragLen  int

	decoded  map[int]Part
	received map[string]struct{}
	buffer   map[string]bufEntry
	queue    []queueEntry
}

type bufEntry struct {
	indices []int
	part    Part
}

type queueEntry struct {
	index int
	part  Part
}

// NewDecoder returns an empty Decoder ready to receive parts.
func NewDecoder() *Decoder {
	return &Decoder{
		decoded:  make(map[int]Part),
		received: make(map[string]struct{}),
		buffer:   make(map[string]bufEntry),
	}
}

// Receive ingests a part. Once the decoder is Complete, further parts are
// silently ignored, matching the "no-op" policy for stream tail-ends.
func (d *Decoder) Receive(p Part) error {
	if d.Complete() {
		return nil
	}
	if p.SeqCount == 0 || p.MsgLen == 0 || len(p.Payload) == 0 {
		return ErrEmptyPart
	}
	if !d.started {
		d.started = true
		d.seqCount = int(p.SeqCount)
		d.msgLen = int(p.MsgLen)
		d.checksum = p.Checksum
		d.fragLen = len(p.Payload)
	} else if int(p.SeqCount) != d.seqCount || int(p.MsgLen) != d.msgLen ||
		p.Checksum != d.checksum || len(p.Payload) != d.fragLen {
		return ErrInconsistentPart
	}

	idxs := p.indices()
	key := indexKey(idxs)
	if _, ok := d.received[key]; ok {
		return nil
	}
	d.received[key] = struct{}{}

	if p.simple() {
		d.insertSimple(idxs[0], p)
		d.drainQueue()
	} else {
		d.reduceComplex(idxs, p)
	}
	return nil
}

func (d *Decoder) insertSimple(i int, p Part) {
	d.decoded[i] = p
	d.queue = append(d.queue, queueEntry{index: i, part: p})
}

// reduceComplex XORs out every index of idxs already in decoded, then
// either discards the part (no new information), promotes it to simple,
// or files the residual in buffer.
func (d *Decoder) reduceComplex(idxs []int, p Part) {
	remaining := append([]int(nil), idxs...)
	payload := append([]byte(nil), p.Payload...)
	for _, k := range idxs {
		known, ok := d.decoded[k]
		if !ok {
			continue
		}
		payload = xor(payload, known.Payload)
		remaining = removeInt(remaining, k)
	}
	if len(remaining) == 0 {
		return
	}
	reduced := Part{Seq: p.Seq, SeqCount: p.SeqCount, MsgLen: p.MsgLen, Checksum: p.Checksum, Payload: payload}
	if len(remaining) == 1 {
		d.insertSimple(remaining[0], reduced)
		d.drainQueue()
		return
	}
	d.buffer[indexKey(remaining)] = bufEntry{indices: remaining, part: reduced}
}

// drainQueue pops newly solved simple parts (LIFO: pop order affects only
// work ordering, not final contents, but is fixed for reproducibility) and
// reduces every buffered residual that still mentions the solved index.
func (d *Decoder) drainQueue() {
	for len(d.queue) > 0 {
		e := d.queue[len(d.queue)-1]
		d.queue = d.queue[:len(d.queue)-1]

		keys := make([]string, 0, len(d.buffer))
		for k := range d.buffer {
			keys = append(keys, k)
		}
		for _, k := range keys {
			entry, ok := d.buffer[k]
			if !ok || !containsInt(entry.indices, e.index) {
				continue
			}
			delete(d.buffer, k)

			newIdx := removeInt(entry.indices, e.index)
			payload := xor(entry.part.Payload, e.part.Payload)
			reduced := Part{
				Seq: entry.part.Seq, SeqCount: entry.part.SeqCount,
				MsgLen: entry.part.MsgLen, Checksum: entry.part.Checksum,
				Payload: payload,
			}
			if len(newIdx) == 1 {
				d.insertSimple(newIdx[0], reduced)
			} else {
				d.buffer[indexKey(newIdx)] = bufEntry{indices: newIdx, part: reduced}
			}
		}
	}
}

// Complete reports whether every fragment has been recovered.
func (d *Decoder) Complete() bool {
	return d.started && len(d.decoded) == d.seqCount
}

// Progress estimates completion as a fraction in [0, 1], assuming the
// typical ~1.75x overhead of a fountain stream before full recovery.
func (d *Decoder) Progress() float32 {
	if !d.started {
		return 0
	}
	estimated := float32(d.seqCount) * 1.75
	p := float32(len(d.received)) / estimated
	if p > 1 {
		p = 1
	}
	return p
}

// Message returns the decoded message once Complete, verifying that the
// zero-padding the encoder appended is intact.
func (d *Decoder) Message() ([]byte, error) {
	if !d.Complete() {
		return nil, ErrIncomplete
	}
	msg := make([]byte, 0, d.seqCount*d.fragLen)
	for i := 0; i < d.seqCount; i++ {
		msg = append(msg, d.decoded[i].Payload...)
	}
	for _, b := range msg[d.msgLen:] {
		if b != 0 {
			return nil, ErrInvalidPadding
		}
	}
	return msg[:d.msgLen], nil
}
