package internal

import "github.com/frankli0324/go-transporter/internal/dialer"

// CoreDialer returns the innermost *dialer.CoreDialer of the dialer chain,
// or nil when the chain does not end in one.
func (t *Transporter) CoreDialer() *dialer.CoreDialer {
	for d := t.getDialer(); d != nil; d = d.Unwrap() {
		if cd, ok := d.(*dialer.CoreDialer); ok {
			return cd
		}
	}
	return nil
}
