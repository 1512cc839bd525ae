// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// FrameReader delivers text frames in arrival order. ReadFrame blocks until
// a frame arrives or the underlying connection ends.
type FrameReader interface {
	ReadFrame() (string, error)
}

type wsReader struct {
	conn *websocket.Conn
}

// NewWSReader reads one frame per WebSocket message.
func NewWSReader(conn *websocket.Conn) FrameReader {
	return &wsReader{conn: conn}
}

func (r *wsReader) ReadFrame() (string, error) {
	_, msg, err := r.conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return string(msg), nil
}

type lineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader reads newline delimited frames, e.g. from a serial port.
// Blank lines are skipped.
func NewLineReader(r io.Reader) FrameReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

func (r *lineReader) ReadFrame() (string, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if line == "" {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return "", fmt.Errorf("%w: %w", ErrConnectionClosed, io.EOF)
}
