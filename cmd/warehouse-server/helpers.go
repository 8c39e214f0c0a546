package main

import (
	"net"
	"strconv"
	"time"
)

// writeResponse writes data straight to a connection under a write deadline.
// It is used on the rejection path, which has no buffered writer.
func (app *application) writeResponse(conn net.Conn, data []byte) error {
	remoteAddr := conn.RemoteAddr().String()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		app.logger.Error("failed to set write deadline", "error", err, "remote_addr", remoteAddr)
		return err
	}

	_, err := conn.Write(data)
	if err != nil {
		app.logger.Error("failed to write response", "error", err, "remote_addr", remoteAddr)
		return err
	}
	return nil
}

// parseInts converts every argument to an int. names label the arguments in
// the error message and must be as long as args.
func parseInts(args []string, names ...string) ([]int, string, bool) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, "ERR " + names[i] + " is not an integer", false
		}
		out[i] = n
	}
	return out, "", true
}
