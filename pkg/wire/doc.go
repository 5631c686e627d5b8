// Package wire defines the comm message envelope exchanged with the kernel
// and its encodings.
//
// # Envelope
//
// Every message carries a header naming its type and a content block
// addressing a comm:
//
//	{
//	  "header":  {"msg_id": "...", "msg_type": "comm_msg"},
//	  "content": {
//	    "comm_id": "abc",
//	    "data": {
//	      "method": "update",
//	      "state": {"value": 5, "image": null},
//	      "buffer_paths": [["image"]]
//	    }
//	  }
//	}
//
// Binary buffers never appear in the JSON. They travel alongside it and are
// matched to buffer_paths by index.
//
// # Encodings
//
//   - JSON: the envelope alone (DecodeJSON, EncodeJSON)
//   - Binary: the Jupyter websocket framing of JSON plus buffers
//     (DecodeBinary, EncodeBinary)
//   - CBOR: envelope and buffers in one CBOR map (DecodeCBOR, EncodeCBOR)
//
// Decoding validates that a msg_type is present. Everything else about a
// message's shape is left to the router, which drops what it cannot use.
package wire
