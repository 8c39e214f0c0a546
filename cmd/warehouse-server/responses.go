package main

import (
	"io"
	"strconv"
)

// Pre-allocated response buffers for the most frequent fixed replies:
// PONG, the 0/1 answers of WH.DEL and the nil reply for missing products.
var (
	respPong = []byte("+PONG\r\n")
	respZero = []byte(":0\r\n")
	respOne  = []byte(":1\r\n")
	respNil  = []byte("$-1\r\n")
)

// The append helpers build RESP values into a caller-owned buffer so that a
// composite reply goes out in a single Write.

func appendArrayHeader(buf []byte, n int) []byte {
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(n), 10)
	return append(buf, '\r', '\n')
}

func appendInteger(buf []byte, i int64) []byte {
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, i, 10)
	return append(buf, '\r', '\n')
}

func appendBulkString(buf []byte, s string) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, s...)
	return append(buf, '\r', '\n')
}

func appendNil(buf []byte) []byte {
	return append(buf, respNil...)
}

func (app *application) writeSimpleStringResponse(w io.Writer, s string) error {
	if s == "PONG" {
		_, err := w.Write(respPong)
		return err
	}

	// Format: +string\r\n
	buf := make([]byte, 0, 1+len(s)+2)
	buf = append(buf, '+')
	buf = append(buf, s...)
	buf = append(buf, '\r', '\n')
	_, err := w.Write(buf)
	return err
}

// writeErrorResponse writes a RESP error and counts it as a failed command.
func (app *application) writeErrorResponse(w io.Writer, errStr string) error {
	app.metrics.FailedCommands.Add(1)

	// Format: -string\r\n
	buf := make([]byte, 0, 1+len(errStr)+2)
	buf = append(buf, '-')
	buf = append(buf, errStr...)
	buf = append(buf, '\r', '\n')
	_, err := w.Write(buf)
	return err
}

func (app *application) writeBulkStringResponse(w io.Writer, s string) error {
	// Format: $length\r\nstring\r\n
	buf := appendBulkString(make([]byte, 0, 16+len(s)), s)
	_, err := w.Write(buf)
	return err
}

// writeBulkBytesResponse writes a byte slice as a RESP Bulk String without
// converting it to a string first. Used for the JSON snapshot.
func (app *application) writeBulkBytesResponse(w io.Writer, data []byte) error {
	// Format: $length\r\n<bytes>\r\n
	buf := make([]byte, 0, 16+len(data))
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(data)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, data...)
	buf = append(buf, '\r', '\n')
	_, err := w.Write(buf)
	return err
}

func (app *application) writeIntegerResponse(w io.Writer, i int) error {
	if i == 0 {
		_, err := w.Write(respZero)
		return err
	}
	if i == 1 {
		_, err := w.Write(respOne)
		return err
	}

	// Format: :integer\r\n
	_, err := w.Write(appendInteger(make([]byte, 0, 24), int64(i)))
	return err
}

func (app *application) writeNilResponse(w io.Writer) error {
	// Format: $-1\r\n (Null Bulk String)
	_, err := w.Write(respNil)
	return err
}

// writeIntegerArrayResponse writes a RESP array of integers.
// Format: *count\r\n:int1\r\n:int2\r\n...:intN\r\n
func (app *application) writeIntegerArrayResponse(w io.Writer, values []int) error {
	buf := appendArrayHeader(make([]byte, 0, 6+len(values)*6), len(values))
	for _, v := range values {
		buf = appendInteger(buf, int64(v))
	}

	_, err := w.Write(buf)
	return err
}

// writeBulkArrayResponse writes a RESP array of bulk strings.
// Format: *count\r\n$len1\r\nstr1\r\n...
func (app *application) writeBulkArrayResponse(w io.Writer, values []string) error {
	size := 6
	for _, v := range values {
		size += len(v) + 16
	}

	buf := appendArrayHeader(make([]byte, 0, size), len(values))
	for _, v := range values {
		buf = appendBulkString(buf, v)
	}

	_, err := w.Write(buf)
	return err
}
