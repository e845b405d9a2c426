package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a comma- or semicolon-delimited ledger with a header row
func ReadCSV(r io.Reader) ([]contracts.Transaction, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &contracts.MissingFieldError{Missing: contracts.RequiredFields, Found: []string{}}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return parseRows(idx, rows, false)
}

// sniffDelimiter looks at the header line: ';' wins when it appears and ',' does not
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.IndexByte(peek, ';') >= 0 && bytes.IndexByte(peek, ',') < 0 {
		return ';'
	}
	return ','
}
