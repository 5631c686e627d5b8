// Package transport moves comm messages over byte streams.
//
// Messages are carried in length-prefixed frames:
//
//	┌──────────────────┬──────────────────────────────┐
//	│ length (4B, BE)  │ encoded message              │
//	└──────────────────┴──────────────────────────────┘
//
// The frame payload is one message in a chosen Encoding: the Jupyter binary
// websocket layout, CBOR, or bare JSON. The package does not dial or listen;
// callers hand it any io.Reader or io.Writer (a pipe, a socket, a capture
// file) and plug the resulting MessageReader and MessageWriter into a
// session.
package transport
