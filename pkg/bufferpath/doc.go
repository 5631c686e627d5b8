// Package bufferpath splices binary buffers into and out of state trees.
//
// The comm protocol transmits a JSON envelope and an array of binary buffers
// as parallel channels. A buffer path is the key sequence inside the state
// tree where a buffer belongs; paths and buffers are matched by index.
//
//	buffer_paths: [["data"], ["image", "value"]]
//	buffers:      [buf0, buf1]
//	state:        {"image": {}}
//	result:       {"image": {"value": buf1}, "data": buf0}
//
// ApplyPaths runs on receipt, ExtractPaths before sending, and FindPaths
// discovers binary values when the caller does not know their locations.
// None of the functions return errors: misaligned inputs are handled by
// truncation (apply) and placeholders (extract).
package bufferpath
