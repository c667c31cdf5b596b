package chunked

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrMalformed     = errors.New("malformed chunked encoding")
	ErrInvalidLength = errors.New("invalid byte in chunk length")
	ErrLengthTooLong = errors.New("http chunk length too large")
)

// NewChunkedReader decodes a chunked transfer-coded body. Chunk extensions
// are ignored, trailers after the last chunk are left unread.
func NewChunkedReader(r io.Reader) io.Reader {
	var br *bufio.Reader
	if v, ok := r.(*bufio.Reader); ok {
		br = v
	} else {
		br = bufio.NewReader(r)
	}
	return &chunkedReader{br, nil, 0, 0, false}
}

type chunkedReader struct {
	*bufio.Reader
	currentChunk                   io.Reader
	currentCount, currentChunkSize int64
	done                           bool
}

func (c *chunkedReader) readChunkHeader() (size uint64, err error) {
	line, err := c.ReadSlice('\n')
	if err != nil {
		if err == io.EOF || err == bufio.ErrBufferFull {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	line = bytes.TrimRight(line, "\r\n")
	if i := bytes.IndexByte(line, ';'); i != -1 {
		line = line[:i]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, ErrInvalidLength
	}
	cnt := 0
	for _, b := range line {
		cnt++
		switch {
		case '0' <= b && b <= '9':
			b = b - '0'
		case 'a' <= b && b <= 'f':
			b = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			b = b - 'A' + 10
		default:
			return 0, ErrInvalidLength
		}
		if cnt >= 16 {
			return 0, ErrLengthTooLong
		}
		size <<= 4
		size |= uint64(b)
	}
	return
}

func (c *chunkedReader) Read(p []byte) (n int, err error) {
	if c.done {
		return 0, io.EOF
	}
	if c.currentChunk == nil {
		l, err := c.readChunkHeader()
		if err != nil {
			return n, err
		}
		if l == 0 {
			c.done = true
			return 0, io.EOF
		}
		c.currentChunk = io.LimitReader(c.Reader, int64(l))
		c.currentChunkSize = int64(l)
	}
	n, err = c.currentChunk.Read(p)
	c.currentCount += int64(n)
	if err == io.EOF {
		if c.currentCount != c.currentChunkSize {
			return n, io.ErrUnexpectedEOF
		}
		var crlf [2]byte
		if _, err = io.ReadFull(c.Reader, crlf[:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return n, err
		}
		if crlf[0] != '\r' || crlf[1] != '\n' {
			return n, ErrMalformed
		}
		c.currentChunk = nil
		c.currentCount = 0
	}
	return
}
