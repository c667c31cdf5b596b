package transport

import "bytes"

// TransferState accumulates one response as it streams off the wire. The
// header sink and the body sink are fed in arrival order by the reader
// driving the exchange; a TransferState belongs to exactly one call.
type TransferState struct {
	header     bytes.Buffer
	headerDone bool

	body     bytes.Buffer
	received int64
}

// StreamHeader receives raw header bytes. A chunk that is exactly a bare
// CRLF (or LF) line closes the header section, provided it starts a new
// line: a chunk that merely finishes a line split across deliveries does
// not. Receiving more bytes after that means the server sent another
// header block (e.g. after 100 Continue), so the previous block is dropped
// and accumulation restarts.
func (s *TransferState) StreamHeader(p []byte) int {
	if s.headerDone {
		s.header.Reset()
		s.headerDone = false
	}
	lineStart := s.header.Len() == 0 || bytes.HasSuffix(s.header.Bytes(), []byte{'\n'})
	s.header.Write(p)
	if lineStart && (string(p) == "\r\n" || string(p) == "\n") {
		s.headerDone = true
	}
	return len(p)
}

// StreamBody receives raw body bytes.
func (s *TransferState) StreamBody(p []byte) int {
	s.body.Write(p)
	s.received += int64(len(p))
	return len(p)
}

func (s *TransferState) Header() []byte   { return s.header.Bytes() }
func (s *TransferState) HeaderDone() bool { return s.headerDone }
func (s *TransferState) Body() []byte     { return s.body.Bytes() }
func (s *TransferState) Received() int64  { return s.received }
