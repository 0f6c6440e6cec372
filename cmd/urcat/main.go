// command urcat encodes stdin to a sequence of ur: strings, or decodes a
// sequence of ur: strings (one per line) back to the original bytes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"bcur.dev/bc/ur"
)

var (
	encode         = flag.Bool("encode", false, "encode stdin to ur: parts")
	decode         = flag.Bool("decode", false, "decode ur: parts from stdin")
	urType         = flag.String("type", "bytes", "UR type to encode as")
	maxFragmentLen = flag.Int("max-fragment-len", 200, "maximum fragment length in message bytes per part")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "urcat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	switch {
	case *encode && *decode:
		return fmt.Errorf("-encode and -decode are mutually exclusive")
	case *encode:
		return runEncode()
	case *decode:
		return runDecode()
	default:
		return fmt.Errorf("specify -encode or -decode")
	}
}

func runEncode() error {
	message, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	enc, err := ur.NewEncoder(message, *maxFragmentLen, *urType)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for !enc.Complete() {
		part, err := enc.NextPart()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, part)
	}
	return nil
}

func runDecode() error {
	dec := ur.NewDecoder()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := dec.Receive(line); err != nil {
			return err
		}
		if dec.Complete() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !dec.Complete() {
		return fmt.Errorf("incomplete: received parts do not recover the message")
	}
	message, err := dec.Message()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(message)
	return err
}
