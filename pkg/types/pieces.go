package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PiecesKind tells which variant a Pieces value holds.
type PiecesKind uint8

const (
	PiecesEmpty PiecesKind = iota
	PiecesCount
	PiecesLabel
)

// Pieces is the piece count of a luggage task. Clients send either a number or a
// free-form label ("2+1", "3 bags"); the kind is preserved through storage.
type Pieces struct {
	kind  PiecesKind
	count int
	label string
}

func PiecesFromCount(n int) Pieces {
	return Pieces{kind: PiecesCount, count: n}
}

func PiecesFromLabel(s string) Pieces {
	return Pieces{kind: PiecesLabel, label: s}
}

func (p Pieces) Kind() PiecesKind { return p.kind }

func (p Pieces) IsEmpty() bool { return p.kind == PiecesEmpty }

// Count returns the numeric variant.
func (p Pieces) Count() (int, bool) {
	return p.count, p.kind == PiecesCount
}

// Label returns the textual variant.
func (p Pieces) Label() (string, bool) {
	return p.label, p.kind == PiecesLabel
}

// Int converts to an integer. Labels convert only when made entirely of digits.
func (p Pieces) Int() (int, bool) {
	switch p.kind {
	case PiecesCount:
		return p.count, true
	case PiecesLabel:
		trimmed := strings.TrimSpace(p.label)
		if trimmed == "" {
			return 0, false
		}
		for _, r := range trimmed {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (p Pieces) String() string {
	switch p.kind {
	case PiecesCount:
		return strconv.Itoa(p.count)
	case PiecesLabel:
		return p.label
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (p Pieces) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case PiecesCount:
		return json.Marshal(p.count)
	case PiecesLabel:
		return json.Marshal(p.label)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pieces) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Pieces{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = PiecesFromLabel(s)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(trimmed, &num); err != nil {
			return fmt.Errorf("pcs must be a number or a string: %w", err)
		}
		n, err := strconv.Atoi(num.String())
		if err != nil {
			f, ferr := num.Float64()
			if ferr != nil || f != float64(int(f)) {
				return fmt.Errorf("pcs must be a whole number, got %s", num.String())
			}
			n = int(f)
		}
		*p = PiecesFromCount(n)
		return nil
	}
}

// Value implements driver.Valuer; the column holds the JSON encoding.
func (p Pieces) Value() (driver.Value, error) {
	if p.kind == PiecesEmpty {
		return nil, nil
	}
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (p *Pieces) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = Pieces{}
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported pcs column type %T", value)
	}
}
