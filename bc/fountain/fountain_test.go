package fountain

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"
)

// TestPartCBOREnvelope exercises the literal CBOR wire form for seq=1 of
// the well-known 256-byte "Wolf" vector: an array of five elements
// (seq, seqCount, mlen, crc, payload).
func TestPartCBOREnvelope(t *testing.T) {
	const wireHex = "8501091901001a0167aa07581d916ec65cf77cadf55cd7f9cda1a1030026ddd42e905b77adc36e4f2d3c"
	wire, err := hex.DecodeString(wireHex)
	if err != nil {
		t.Fatal(err)
	}

	p, err := UnmarshalPart(wire)
	if err != nil {
		t.Fatalf("UnmarshalPart: %v", err)
	}
	if p.Seq != 1 || p.SeqCount != 9 || p.MsgLen != 256 || p.Checksum != 0x0167aa07 {
		t.Fatalf("got %+v", p)
	}
	if len(p.Payload) != 29 {
		t.Fatalf("got payload length %d, want 29", len(p.Payload))
	}

	got, err := p.MarshalCBOR()
	if err != nil {
		t.Fatalf("MarshalCBOR: %v", err)
	}
	if !bytes.Equal(got, wire) {
		t.Errorf("got %x, want %x", got, wire)
	}
}

func TestUnmarshalPartRejectsWrongArity(t *testing.T) {
	// array(4) instead of array(5).
	bad, _ := hex.DecodeString("8401091901001a0167aa07")
	if _, err := UnmarshalPart(bad); err == nil {
		t.Fatal("expected error for wrong array length")
	}
}

func TestUnmarshalPartRejectsIndefiniteBytes(t *testing.T) {
	// array(5) of [1, 1, 1, 1, <indefinite-length byte string 0x02>].
	bad, _ := hex.DecodeString("85010101015f4102ff")
	if _, err := UnmarshalPart(bad); err == nil {
		t.Fatal("expected error for indefinite-length byte string")
	}
}

func roundTrip(t *testing.T, message []byte, maxFragmentLen int) []byte {
	t.Helper()
	enc, err := NewEncoder(message, maxFragmentLen)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec := NewDecoder()
	for !dec.Complete() {
		if err := dec.Receive(enc.NextPart()); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}
	got, err := dec.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	return got
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		msg    []byte
		maxLen int
	}{
		{"single fragment", []byte("hello, world"), 30},
		{"exact boundary", bytes.Repeat([]byte{0x42}, 30), 30},
		{"one over boundary", bytes.Repeat([]byte{0x07}, 31), 30},
		{"many fragments", pseudoMessage(1024, 1), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.msg, tc.maxLen)
			if !bytes.Equal(got, tc.msg) {
				t.Fatalf("got %d bytes, want %d bytes", len(got), len(tc.msg))
			}
		})
	}
}

func TestMLenLmaxPlusOne(t *testing.T) {
	msg := pseudoMessage(31, 2)
	enc, err := NewEncoder(msg, 30)
	if err != nil {
		t.Fatal(err)
	}
	if enc.FragmentCount() != 2 {
		t.Fatalf("got N=%d, want 2", enc.FragmentCount())
	}
	p1 := enc.NextPart()
	if len(p1.Payload) != 16 { // ceil(31/2) = 16
		t.Fatalf("got fragment length %d, want 16", len(p1.Payload))
	}
}

func TestSingleFragmentFirstPartIsWholeMessage(t *testing.T) {
	msg := []byte("short message")
	enc, err := NewEncoder(msg, 100)
	if err != nil {
		t.Fatal(err)
	}
	p := enc.NextPart()
	padded := append([]byte(nil), msg...)
	padded = append(padded, make([]byte, len(p.Payload)-len(msg))...)
	if !bytes.Equal(p.Payload, padded) {
		t.Fatalf("got %x, want %x", p.Payload, padded)
	}
	dec := NewDecoder()
	if err := dec.Receive(p); err != nil {
		t.Fatal(err)
	}
	if !dec.Complete() {
		t.Fatal("expected completion after receiving the only fragment")
	}
}

func TestDeterminism(t *testing.T) {
	msg := pseudoMessage(777, 3)
	enc1, _ := NewEncoder(msg, 50)
	enc2, _ := NewEncoder(msg, 50)
	for i := 0; i < 30; i++ {
		p1 := enc1.NextPart()
		p2 := enc2.NextPart()
		if p1.Seq != p2.Seq || p1.Checksum != p2.Checksum || !bytes.Equal(p1.Payload, p2.Payload) {
			t.Fatalf("part %d diverged: %+v vs %+v", i, p1, p2)
		}
	}
}

func TestIdempotence(t *testing.T) {
	msg := pseudoMessage(512, 4)
	enc, _ := NewEncoder(msg, 60)
	dec := NewDecoder()
	var parts []Part
	for !dec.Complete() {
		p := enc.NextPart()
		parts = append(parts, p)
		if err := dec.Receive(p); err != nil {
			t.Fatal(err)
		}
	}
	want, err := dec.Message()
	if err != nil {
		t.Fatal(err)
	}
	// Re-deliver every part a second time; state must not change.
	for _, p := range parts {
		if err := dec.Receive(p); err != nil {
			t.Fatalf("re-receive: %v", err)
		}
	}
	got, err := dec.Message()
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("message changed after duplicate delivery: %v", err)
	}
}

func TestOrderIndependence(t *testing.T) {
	msg := pseudoMessage(900, 5)
	enc, _ := NewEncoder(msg, 70)
	var parts []Part
	for i := 0; i < enc.FragmentCount()*2; i++ {
		parts = append(parts, enc.NextPart())
	}

	decodeInOrder := func(order []int) []byte {
		dec := NewDecoder()
		for _, i := range order {
			if err := dec.Receive(parts[i]); err != nil {
				t.Fatal(err)
			}
		}
		got, err := dec.Message()
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	forward := make([]int, len(parts))
	for i := range forward {
		forward[i] = i
	}
	reversed := make([]int, len(parts))
	for i := range reversed {
		reversed[i] = len(parts) - 1 - i
	}
	shuffled := append([]int(nil), forward...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	want := decodeInOrder(forward)
	for _, order := range [][]int{reversed, shuffled} {
		if got := decodeInOrder(order); !bytes.Equal(got, want) {
			t.Fatalf("order-dependent result: got %x, want %x", got, want)
		}
	}
}

func TestLossTolerance(t *testing.T) {
	msg := pseudoMessage(32767, 6)
	enc, err := NewEncoder(msg, 1000)
	if err != nil {
		t.Fatal(err)
	}
	dec := NewDecoder()
	for i := 0; !dec.Complete(); i++ {
		p := enc.NextPart()
		if i%2 == 0 {
			continue // drop every other part
		}
		if err := dec.Receive(p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := dec.Message()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatal("recovered message does not match original")
	}
}

func TestInconsistentPartRejected(t *testing.T) {
	msgA := pseudoMessage(100, 7)
	msgB := pseudoMessage(200, 8)
	encA, _ := NewEncoder(msgA, 20)
	encB, _ := NewEncoder(msgB, 20)
	dec := NewDecoder()
	if err := dec.Receive(encA.NextPart()); err != nil {
		t.Fatal(err)
	}
	if err := dec.Receive(encB.NextPart()); err != ErrInconsistentPart {
		t.Fatalf("got %v, want ErrInconsistentPart", err)
	}
}

func TestEmptyPartRejected(t *testing.T) {
	dec := NewDecoder()
	if err := dec.Receive(Part{}); err != ErrEmptyPart {
		t.Fatalf("got %v, want ErrEmptyPart", err)
	}
}

func TestCompleteIgnoresFurtherParts(t *testing.T) {
	msg := pseudoMessage(40, 9)
	enc, _ := NewEncoder(msg, 20)
	dec := NewDecoder()
	for !dec.Complete() {
		if err := dec.Receive(enc.NextPart()); err != nil {
			t.Fatal(err)
		}
	}
	want, _ := dec.Message()
	if err := dec.Receive(enc.NextPart()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	got, _ := dec.Message()
	if !bytes.Equal(got, want) {
		t.Fatal("message changed after delivery past completion")
	}
}

// pseudoMessage generates a deterministic, reproducible byte sequence for
// round-trip tests that don't depend on any particular literal content.
func pseudoMessage(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte("hello"), 3)
	f.Add(pseudoMessage(256, 1), 30)
	f.Fuzz(func(t *testing.T, message []byte, maxFragmentLen int) {
		if len(message) == 0 || maxFragmentLen <= 0 || maxFragmentLen > 4096 {
			t.Skip()
		}
		got := roundTrip(t, message, maxFragmentLen)
		if !bytes.Equal(got, message) {
			t.Fatalf("got %d bytes, want %d bytes", len(got), len(message))
		}
	})
}
