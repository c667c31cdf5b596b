package transport

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
	"github.com/frankli0324/go-transporter/internal/transport/chunked"
)

const (
	// DefaultBufferSize is the largest chunk handed to the body sink at once.
	DefaultBufferSize = 1160

	maxHeaderBytes = 1 << 20
)

type HTTP1 struct {
	BufferSize int

	// Forward makes the request target absolute-form, as expected by a
	// forwarding HTTP proxy. ProxyHeader is sent along with it.
	Forward     bool
	ProxyHeader model.Header
}

func (t HTTP1) bufferSize() int {
	if t.BufferSize > 0 {
		return t.BufferSize
	}
	return DefaultBufferSize
}

func (t HTTP1) Write(w io.Writer, r *model.PreparedRequest) error {
	bw := bufio.NewWriter(w) // default bufsize is 4096
	if err := t.writeHeader(bw, r); err != nil {
		return err
	}
	if isChunked(r.Header.Get("Transfer-Encoding")) {
		cw := chunked.NewChunkedWriter(bw)
		if _, err := cw.Write(r.Body); err != nil {
			return err
		}
		if err := cw.Close(); err != nil {
			return err
		}
	} else if r.Body != nil {
		if _, err := bw.Write(r.Body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeHeader writes the request line and header part of an http 1.1 request
// e.g.:
//
//	POST /items HTTP/1.1\r\n
//	Host: api.example.com\r\n
//	Accept: */*\r\n
//	Content-Length: 7\r\n
//	Connection: close\r\n
//	content-type: application/json\r\n
//	\r\n
func (t HTTP1) writeHeader(w *bufio.Writer, r *model.PreparedRequest) error {
	target := r.U.RequestURI()
	if t.Forward {
		u := *r.U
		u.Fragment, u.RawFragment = "", ""
		target = u.String()
	}
	w.WriteString(r.Method)
	w.WriteByte(' ')
	w.WriteString(target)
	w.WriteString(" HTTP/1.1\r\n")

	w.WriteString("Host: ")
	w.WriteString(r.HeaderHost)
	w.WriteString("\r\n")
	if !r.Header.Has("Accept") {
		w.WriteString("Accept: */*\r\n")
	}
	if !r.Header.Has("Content-Length") && !isChunked(r.Header.Get("Transfer-Encoding")) &&
		(r.Body != nil || needsLength(r.Method)) {
		w.WriteString("Content-Length: ")
		w.WriteString(strconv.Itoa(len(r.Body)))
		w.WriteString("\r\n")
	}
	if !r.Header.Has("Connection") {
		w.WriteString("Connection: close\r\n")
	}
	for _, line := range t.ProxyHeader.Lines() {
		w.WriteString(line)
		w.WriteString("\r\n")
	}
	for _, line := range r.Header.Lines() {
		w.WriteString(line)
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func needsLength(method string) bool {
	return method == "POST" || method == "PUT" || method == "PATCH"
}

// Read streams the response from r into s: header lines go to the header
// sink one line at a time, then the body is decoded according to its
// framing and handed to the body sink. Interim 1xx header blocks are read
// through so that only the final block remains in s; a stream that ends
// after nothing but interim blocks is a GotNothing TransportError.
//
// Read does not interpret the final status code beyond deciding whether a
// body follows; a response with a bad status line is left for Parse.
func (t HTTP1) Read(r io.Reader, req *model.PreparedRequest, s *TransferState) error {
	br := bufio.NewReader(r)
	for {
		eof, err := t.readHeader(br, s)
		if err != nil {
			return err
		}
		code := statusCode(s.Header())
		if eof {
			if s.HeaderDone() && interim(code) {
				// only an interim block arrived before the stream ended
				return errors.TransportError{Code: errors.GotNothing, Err: io.ErrUnexpectedEOF}
			}
			return nil
		}
		if code == -1 {
			return nil
		}
		if interim(code) {
			continue
		}
		if code == 101 || code == 204 || code == 304 || req.Method == "HEAD" || req.Method == "CONNECT" {
			return nil
		}
		return t.readBody(br, s)
	}
}

func interim(code int) bool {
	return code >= 100 && code < 200 && code != 101
}

// readHeader feeds one header block to the header sink. eof reports that
// the connection ended before the block was terminated.
func (t HTTP1) readHeader(br *bufio.Reader, s *TransferState) (eof bool, err error) {
	total := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			total += len(line)
			if total > maxHeaderBytes {
				return false, errors.TransportError{Code: errors.RecvError, Err: errors.ErrHeaderTooLarge}
			}
			s.StreamHeader([]byte(line))
		}
		if err == io.EOF {
			if len(s.Header()) == 0 {
				return true, errors.TransportError{Code: errors.GotNothing, Err: io.ErrUnexpectedEOF}
			}
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if s.HeaderDone() {
			return false, nil
		}
	}
}

func (t HTTP1) readBody(br *bufio.Reader, s *TransferState) error {
	chunkedBody, length := framing(s.Header())

	var body io.Reader = br
	switch {
	case chunkedBody:
		body = chunked.NewChunkedReader(br)
	case length >= 0:
		body = io.LimitReader(br, length)
	}

	buf := make([]byte, t.bufferSize())
	for {
		n, err := body.Read(buf)
		if n > 0 {
			s.StreamBody(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return errors.TransportError{Code: errors.PartialFile, Err: err}
		}
		if err != nil {
			return err
		}
	}
	if !chunkedBody && length >= 0 && s.Received() < length {
		return errors.TransportError{Code: errors.PartialFile, Err: io.ErrUnexpectedEOF}
	}
	return nil
}

// framing reads Transfer-Encoding and Content-Length out of a raw header
// block. length is -1 when the body is delimited by connection close.
func framing(header []byte) (chunkedBody bool, length int64) {
	length = -1
	for _, line := range bytes.Split(header, []byte{'\n'}) {
		k, v, ok := bytes.Cut(line, []byte{':'})
		if !ok {
			continue
		}
		value := strings.TrimSpace(string(v))
		switch strings.ToLower(strings.TrimSpace(string(k))) {
		case "transfer-encoding":
			chunkedBody = isChunked(value)
		case "content-length":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n >= 0 {
				length = n
			}
		}
	}
	return
}

// isChunked reports whether chunked is the final transfer coding of a
// Transfer-Encoding value.
func isChunked(value string) bool {
	codings := strings.Split(value, ",")
	return strings.EqualFold(strings.TrimSpace(codings[len(codings)-1]), "chunked")
}
