// Package opstream reads warehouse operation scripts.
//
// A script is a stream of whitespace-separated tokens. The first token is the
// number of records N, followed by exactly N records. Records are positional:
//
//	day id name stock demand             untagged add
//	add day id name stock demand
//	betteradd day id name stock demand
//	delete id
//	restock id amount
//	purchase day id amount
//
// The untagged form is the add-only script layout; a record starting with a
// number is read as an add. Line breaks carry no meaning, so a record may span
// lines and several records may share one.
package opstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxTokenSize limits a single token (usually a product name). Longer tokens
// abort the read instead of buffering without bound.
const MaxTokenSize = 64 * 1024

// ErrSyntax is wrapped by every malformed-script error.
var ErrSyntax = errors.New("opstream: syntax error")

// Kind identifies an operation.
type Kind int

const (
	KindAdd Kind = iota
	KindBetterAdd
	KindDelete
	KindRestock
	KindPurchase
)

var kindNames = [...]string{
	KindAdd:       "add",
	KindBetterAdd: "betteradd",
	KindDelete:    "delete",
	KindRestock:   "restock",
	KindPurchase:  "purchase",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Op is one record. Only the fields its Kind uses are set.
type Op struct {
	Kind   Kind
	Day    int
	ID     int
	Name   string
	Stock  int
	Demand int
	Amount int
}

// String renders the op in its tagged script form.
func (op Op) String() string {
	switch op.Kind {
	case KindAdd, KindBetterAdd:
		return fmt.Sprintf("%s %d %d %s %d %d", op.Kind, op.Day, op.ID, op.Name, op.Stock, op.Demand)
	case KindDelete:
		return fmt.Sprintf("%s %d", op.Kind, op.ID)
	case KindRestock:
		return fmt.Sprintf("%s %d %d", op.Kind, op.ID, op.Amount)
	case KindPurchase:
		return fmt.Sprintf("%s %d %d %d", op.Kind, op.Day, op.ID, op.Amount)
	default:
		return op.Kind.String()
	}
}

// Reader reads ops from a script one at a time.
type Reader struct {
	sc        *bufio.Scanner
	started   bool
	total     int
	remaining int
	record    int
}

// NewReader creates a Reader. The header is read on the first call to Next
// or Count.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), MaxTokenSize)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

// Count returns the number of records the header announces.
func (r *Reader) Count() (int, error) {
	if err := r.readHeader(); err != nil {
		return 0, err
	}
	return r.total, nil
}

func (r *Reader) readHeader() error {
	if r.started {
		return nil
	}
	r.started = true

	tok, err := r.token()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: missing record count", ErrSyntax)
		}
		return err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: invalid record count %q", ErrSyntax, tok)
	}
	r.total = n
	r.remaining = n
	return nil
}

// token returns the next token, or io.ErrUnexpectedEOF if the stream ended.
func (r *Reader) token() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", fmt.Errorf("%w: token exceeds %d bytes", ErrSyntax, MaxTokenSize)
		}
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

// Next returns the next op, or io.EOF once all announced records are read.
// Tokens after the last record are ignored.
func (r *Reader) Next() (Op, error) {
	if err := r.readHeader(); err != nil {
		return Op{}, err
	}
	if r.remaining == 0 {
		return Op{}, io.EOF
	}
	r.record++

	op, err := r.readRecord()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Op{}, fmt.Errorf("%w: record %d of %d: truncated", ErrSyntax, r.record, r.total)
		}
		return Op{}, fmt.Errorf("record %d: %w", r.record, err)
	}
	r.remaining--
	return op, nil
}

func (r *Reader) readRecord() (Op, error) {
	first, err := r.token()
	if err != nil {
		return Op{}, err
	}

	// A leading number is the untagged add layout.
	if day, err := strconv.Atoi(first); err == nil {
		return r.readAdd(KindAdd, &day)
	}

	switch strings.ToLower(first) {
	case "add":
		return r.readAdd(KindAdd, nil)
	case "betteradd":
		return r.readAdd(KindBetterAdd, nil)
	case "delete":
		return r.readInts(KindDelete)
	case "restock":
		return r.readInts(KindRestock)
	case "purchase":
		return r.readInts(KindPurchase)
	default:
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, first)
	}
}

// readAdd reads "day id name stock demand". If day was already consumed as
// the record's first token it is passed in.
func (r *Reader) readAdd(kind Kind, day *int) (Op, error) {
	op := Op{Kind: kind}
	var err error

	if day != nil {
		op.Day = *day
	} else if op.Day, err = r.int("day"); err != nil {
		return Op{}, err
	}
	if op.ID, err = r.int("id"); err != nil {
		return Op{}, err
	}
	if op.Name, err = r.token(); err != nil {
		return Op{}, err
	}
	if op.Stock, err = r.int("stock"); err != nil {
		return Op{}, err
	}
	if op.Demand, err = r.int("demand"); err != nil {
		return Op{}, err
	}
	return op, nil
}

// readInts fills the integer fields of a delete, restock or purchase record.
func (r *Reader) readInts(kind Kind) (Op, error) {
	op := Op{Kind: kind}
	var err error
	switch kind {
	case KindDelete:
		op.ID, err = r.int("id")
	case KindRestock:
		if op.ID, err = r.int("id"); err == nil {
			op.Amount, err = r.int("amount")
		}
	case KindPurchase:
		if op.Day, err = r.int("day"); err == nil {
			if op.ID, err = r.int("id"); err == nil {
				op.Amount, err = r.int("amount")
			}
		}
	}
	if err != nil {
		return Op{}, err
	}
	return op, nil
}

func (r *Reader) int(field string) (int, error) {
	tok, err := r.token()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: expected integer, got %q", ErrSyntax, field, tok)
	}
	return n, nil
}

// ReadAll reads every record from r.
func ReadAll(r io.Reader) ([]Op, error) {
	rd := NewReader(r)
	n, err := rd.Count()
	if err != nil {
		return nil, err
	}
	// The header is untrusted; don't let it size the allocation.
	ops := make([]Op, 0, min(n, 1024))
	for {
		op, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
}
