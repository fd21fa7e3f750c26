package pipeline

import (
	"bufio"
	"fmt"
	"os"
)

// WriteQueries writes one query per line to path in input order, overwriting
// any existing file. Duplicates are preserved verbatim; the same track
// airing twice is two lines. Returns the number of queries written.
func WriteQueries(path string, queries []string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("open output: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, q := range queries {
		w.WriteString(q)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close output: %w", err)
	}
	return len(queries), nil
}
