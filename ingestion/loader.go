package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/marquee/core"
)

// LoadFile reads catalog records from a JSON array or JSON Lines file.
func LoadFile(path string) ([]core.CandidateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := LoadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadDocuments decodes movie objects from r. The input is either one JSON
// array of objects or one object per line. Fields are normalized the same way
// retrieval hits are, so absent fields take their zero value. Every record
// needs an aid.
func LoadDocuments(r io.Reader) ([]core.CandidateRecord, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err == io.EOF {
		return []core.CandidateRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var objects []map[string]any
		if err := json.NewDecoder(br).Decode(&objects); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
		records := make([]core.CandidateRecord, 0, len(objects))
		for i, obj := range objects {
			record, err := toRecord(obj, fmt.Sprintf("element %d", i))
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		return records, nil
	}

	var records []core.CandidateRecord
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(text, &obj); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidSource, line, err)
		}
		record, err := toRecord(obj, fmt.Sprintf("line %d", line))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		records = []core.CandidateRecord{}
	}
	return records, nil
}

func toRecord(obj map[string]any, where string) (core.CandidateRecord, error) {
	record := core.CandidateFromSource("", core.AsFloat(obj[core.FieldScore]), obj)
	if record.Aid == "" {
		return record, fmt.Errorf("%w: %s: %w", ErrInvalidSource, where, core.ErrEmptyAid)
	}
	return record, nil
}

// firstNonSpace peeks past leading whitespace and returns the first byte
// without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
