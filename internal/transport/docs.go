// package transport contains implementations to requirements on *message syntaxes*
// defined by http related RFCs, limited to what a single HTTP/1.1 exchange over
// a fresh connection needs.
//
// as of 2022.06, RFCs that were to define HTTP/1.1 (RFC723x) are obsoleted by:
//
//	HTTP Semantics (RFC9110)
//	HTTP Caching (RFC9111) and
//	HTTP/1.1 (RFC9112)
//
// the response is captured into a [TransferState] while it is read: header
// lines go to the header sink, decoded body bytes to the body sink. [Parse]
// turns a finished [TransferState] into a model.Response.

package transport
