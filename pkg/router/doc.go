// Package router dispatches inbound comm messages to the model store.
//
//	comm_open                   -> CreateModel(comm_id, data.state, buffers)
//	comm_msg  method "update"   -> UpdateModel(comm_id, data.state, buffers)
//	comm_msg  method "custom"   -> custom handler, store untouched
//	comm_close                  -> DeleteModel(comm_id)
//
// Anything else is dropped. Dropping is not an error: Route never fails,
// it reports what it did in a Result and records drops to the protocol
// logger.
package router
