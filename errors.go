package transporter

import "github.com/frankli0324/go-transporter/internal/errors"

type (
	EncodingError          = errors.EncodingError
	TransportError         = errors.TransportError
	MalformedResponseError = errors.MalformedResponseError
	HTTPStatusError        = errors.HTTPStatusError
	ErrorCode              = errors.Code
)

const (
	UnsupportedProtocol = errors.UnsupportedProtocol
	URLMalformat        = errors.URLMalformat
	CouldntResolveProxy = errors.CouldntResolveProxy
	CouldntResolveHost  = errors.CouldntResolveHost
	CouldntConnect      = errors.CouldntConnect
	PartialFile         = errors.PartialFile
	OperationTimedOut   = errors.OperationTimedOut
	SSLConnectError     = errors.SSLConnectError
	GotNothing          = errors.GotNothing
	SendError           = errors.SendError
	RecvError           = errors.RecvError
	ProxyError          = errors.ProxyError
)
