package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"strings"
)

// Is and As forward to the standard library so that importers of this
// package need not alias it.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

var ErrHeaderTooLarge = errors.New("response header too large")

// Transport wraps err into a TransportError. stage is the code reported
// when nothing more specific (timeout, DNS, TLS) can be read from err;
// callers pass CouldntConnect while dialing, SendError while writing and
// RecvError while reading.
func Transport(url string, stage Code, err error) error {
	if err == nil {
		return nil
	}
	var te TransportError
	if errors.As(err, &te) {
		if te.URL == "" {
			te.URL = url
		}
		return te
	}
	return TransportError{URL: url, Code: classify(stage, err), Errno: errnoName(err), Err: err}
}

func classify(stage Code, err error) Code {
	var (
		dnsErr     *net.DNSError
		netErr     net.Error
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		alertErr   tls.AlertError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return OperationTimedOut
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return OperationTimedOut
		}
		return CouldntResolveHost
	case errors.As(err, &recordErr), errors.As(err, &verifyErr), errors.As(err, &alertErr),
		errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return SSLConnectError
	case errors.As(err, &netErr) && netErr.Timeout():
		return OperationTimedOut
	case strings.HasPrefix(err.Error(), "tls: "):
		return SSLConnectError
	}
	return stage
}
