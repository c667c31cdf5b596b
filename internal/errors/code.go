package errors

import "strconv"

// Code identifies the kind of transport failure. Codes share libcurl's
// CURLcode values.
type Code int

const (
	UnsupportedProtocol Code = 1
	URLMalformat        Code = 3
	CouldntResolveProxy Code = 5
	CouldntResolveHost  Code = 6
	CouldntConnect      Code = 7
	PartialFile         Code = 18
	OperationTimedOut   Code = 28
	SSLConnectError     Code = 35
	GotNothing          Code = 52
	SendError           Code = 55
	RecvError           Code = 56
	ProxyError          Code = 97
)

var codeText = map[Code]string{
	UnsupportedProtocol: "unsupported protocol",
	URLMalformat:        "URL using bad/illegal format",
	CouldntResolveProxy: "couldn't resolve proxy name",
	CouldntResolveHost:  "couldn't resolve host name",
	CouldntConnect:      "couldn't connect to server",
	PartialFile:         "transferred a partial file",
	OperationTimedOut:   "timeout was reached",
	SSLConnectError:     "SSL connect error",
	GotNothing:          "server returned nothing",
	SendError:           "failed sending data to the peer",
	RecvError:           "failure when receiving data from the peer",
	ProxyError:          "proxy handshake error",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "code " + strconv.Itoa(int(c))
}
