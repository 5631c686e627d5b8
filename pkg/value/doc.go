// Package value defines the state values carried by synchronized models.
//
// A Value is a closed variant over the shapes the comm protocol can carry:
//
//	null, boolean, number, string, list, map, binary
//
// The synchronization core never interprets values semantically. It only
// walks maps (to splice binary buffers) and inspects strings (to detect model
// references), so the variant is deliberately small.
//
// # Maps
//
// Map is an ordered mapping from string keys to values. Insertion order is
// preserved and used when encoding to JSON, so a state tree decoded from the
// wire re-encodes with the same key order.
//
// CBOR maps decode in sorted key order, because the CBOR encoder writes
// canonical (sorted) maps.
//
// # Ownership
//
// Values and maps are plain data. A Map is mutable through Set and Delete
// until it is frozen. The model store deep-copies every tree it receives and
// freezes it before publishing, so a write through a published map panics
// instead of changing a snapshot. Clone a frozen map to edit it. Lists and
// binary payloads cannot be frozen and must not be modified in place.
package value
