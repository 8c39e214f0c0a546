// Command parsing.
//
// Clients speak the request half of RESP, so redis-cli and any Redis client
// library can drive the server. Two request shapes are accepted:
//
// Arrays of bulk strings, as sent by client libraries:
//
//	*3\r\n$6\r\nWH.BUY\r\n$2\r\n42\r\n...
//
// Inline commands, one per line with space-separated arguments, as typed into
// telnet or netcat:
//
//	WH.BUY 42 7 3
//
// Every length a client controls is bounded before anything is allocated:
// line length, array element count and bulk string size. Product names are
// short, so the bulk limit is far below the Redis default.

package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

const (
	// MaxBulkLength limits a single bulk string argument.
	MaxBulkLength = 1 << 20

	// MaxArrayLen limits the number of arguments in one command. The widest
	// command (WH.ADD) takes six.
	MaxArrayLen = 1024

	// MaxLineSize limits an inline command or a protocol header line.
	MaxLineSize = 64 * 1024
)

var (
	ErrInvalidSyntax = errors.New("ERR protocol error: invalid syntax")
	ErrLineTooLong   = errors.New("ERR protocol error: line too long")
	ErrBulkTooLarge  = errors.New("ERR protocol error: bulk string too large")
	ErrArrayTooLong  = errors.New("ERR protocol error: too many arguments")
)

type Parser struct {
	reader *bufio.Reader
}

func NewParser(conn io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReaderSize(conn, 4096),
	}
}

// Parse reads one command and returns its name and arguments.
func (p *Parser) Parse() ([]string, error) {
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}

	if len(line) == 0 {
		return nil, ErrInvalidSyntax
	}

	if line[0] == '*' {
		return p.parseArray(line)
	}

	return p.parseInline(line)
}

// readLine reads up to '\n', refusing lines longer than MaxLineSize.
func (p *Parser) readLine() ([]byte, error) {
	line, isPrefix, err := p.reader.ReadLine()
	if err != nil {
		return nil, err
	}

	if !isPrefix {
		return line, nil
	}

	// The line overflowed the reader's buffer; accumulate it under the limit.
	var buf bytes.Buffer
	buf.Write(line)

	for isPrefix {
		line, isPrefix, err = p.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		if buf.Len()+len(line) > MaxLineSize {
			return nil, ErrLineTooLong
		}
		buf.Write(line)
	}

	return buf.Bytes(), nil
}

func (p *Parser) parseInline(line []byte) ([]string, error) {
	parts := bytes.Fields(line)
	if len(parts) == 0 {
		return nil, ErrInvalidSyntax
	}

	result := make([]string, len(parts))
	for i, part := range parts {
		result[i] = string(part)
	}

	return result, nil
}

// parseArray reads the elements announced by a "*<count>" header.
func (p *Parser) parseArray(header []byte) ([]string, error) {
	count, err := strconv.Atoi(string(bytes.TrimSpace(header[1:])))
	if err != nil {
		return nil, ErrInvalidSyntax
	}

	// Null (*-1) and empty (*0) arrays carry no command.
	if count <= 0 {
		return []string{}, nil
	}

	if count > MaxArrayLen {
		return nil, ErrArrayTooLong
	}

	command := make([]string, 0, count)

	for i := 0; i < count; i++ {
		str, err := p.parseBulkString()
		if err != nil {
			return nil, err
		}
		command = append(command, str)
	}

	return command, nil
}

// Buffered returns the number of unread bytes already received. A non-zero
// value means the client pipelined more commands.
func (p *Parser) Buffered() int {
	return p.reader.Buffered()
}

// parseBulkString reads "$<length>\r\n<data>\r\n". A null bulk string ($-1)
// reads as "".
func (p *Parser) parseBulkString() (string, error) {
	line, err := p.readLine()
	if err != nil {
		return "", err
	}

	if len(line) == 0 || line[0] != '$' {
		return "", ErrInvalidSyntax
	}

	length, err := strconv.Atoi(string(bytes.TrimSpace(line[1:])))
	if err != nil {
		return "", ErrInvalidSyntax
	}

	if length == -1 {
		return "", nil
	}
	if length < 0 {
		return "", ErrInvalidSyntax
	}
	if length > MaxBulkLength {
		return "", ErrBulkTooLarge
	}

	buf := make([]byte, length+2)
	if _, err := io.ReadFull(p.reader, buf); err != nil {
		return "", err
	}

	if buf[length] != '\r' || buf[length+1] != '\n' {
		return "", ErrInvalidSyntax
	}

	return string(buf[:length]), nil
}
