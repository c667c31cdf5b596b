package transport

import (
	"io"

	"github.com/frankli0324/go-transporter/internal/model"
)

// Transport writes one request and captures the response it produces.
type Transport interface {
	Write(w io.Writer, req *model.PreparedRequest) error
	Read(r io.Reader, req *model.PreparedRequest, s *TransferState) error
}

var _ Transport = HTTP1{}
