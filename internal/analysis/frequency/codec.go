package frequency

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMalformedTable = errors.New("malformed frequency table")

// WriteTo writes the table as N lines of N space-separated numbers. Values
// use the shortest representation that parses back to the same float64.
func (t Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	buf := make([]byte, 0, 32)
	for i := 0; i < t.n; i++ {
		for j := 0; j < t.n; j++ {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return written, err
				}
				written++
			}
			buf = strconv.AppendFloat(buf[:0], t.cells[i*t.n+j], 'g', -1, 64)
			n, err := bw.Write(buf)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return written, err
		}
		written++
	}
	return written, bw.Flush()
}

// MarshalText implements encoding.TextMarshaler using the WriteTo format.
func (t Table) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read parses an n×n table in the WriteTo format. Blank lines are ignored,
// and trailing separators on a row are tolerated.
func Read(r io.Reader, n int) (Table, error) {
	rows := make([][]float64, 0, n)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(rows) == n {
			return Table{}, fmt.Errorf("%w: more than %d rows (line %d)", ErrMalformedTable, n, line)
		}
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.Replace(f, ",", ".", 1), 64)
			if err != nil {
				return Table{}, fmt.Errorf("%w: line %d column %d: %v", ErrMalformedTable, line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return Table{}, fmt.Errorf("reading frequency table: %w", err)
	}
	if len(rows) != n {
		return Table{}, fmt.Errorf("%w: got %d rows, want %d", ErrMalformedTable, len(rows), n)
	}
	return FromRows(rows)
}

// UnmarshalTable is the inverse of MarshalText.
func UnmarshalTable(data []byte, n int) (Table, error) {
	return Read(bytes.NewReader(data), n)
}
