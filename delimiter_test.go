package calcium

import (
	"bufio"
	"strings"
	"testing"
)

func TestDetermineDelimiterFallsBackToComma(t *testing.T) {
	if got := DetermineDelimiter(nil); got != ',' {
		t.Fatalf("Expected comma for empty input, got %q", got)
	}
}

func TestSniffDelimiterDoesNotConsume(t *testing.T) {
	in := "Time,Cell 1,Cell 2\n0,1,2\n0.5,3,4\n"
	r := bufio.NewReader(strings.NewReader(in))

	SniffDelimiter(r)

	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "Time,Cell 1,Cell 2\n" {
		t.Fatalf("Sniffing consumed input, next line is %q", line)
	}
}
