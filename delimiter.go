package calcium

import (
	"bufio"
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

const sniffBytes = 16 * 1024

// SniffDelimiter returns the most likely field delimiter of the CSV-like data
// buffered in r, without consuming it. Comma is the fallback.
func SniffDelimiter(r *bufio.Reader) rune {
	head, _ := r.Peek(sniffBytes)
	return DetermineDelimiter(head)
}

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in sample.
func DetermineDelimiter(sample []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}
