// Package model implements the shared widget model registry.
//
// # Models
//
// A Model is a named, mutable record of state shared with the kernel. It
// is identified by its comm id and carries the type identity declared at
// creation through reserved state keys:
//
//	_model_name            type name, e.g. "IntSliderModel"
//	_model_module          module that defines the type
//	_model_module_version  module version
//
// # Snapshots
//
// The registry is published as immutable Snapshots. Every accepted
// mutation produces a new Snapshot with a higher version; models that did
// not change are shared by pointer with the previous one. A Snapshot and
// the Models it holds are never modified after publication, so readers on
// any goroutine may hold on to them.
//
// # Lifecycle
//
//	CreateModel  -> new model, replaces a live model with the same id
//	UpdateModel  -> shallow merge of a patch into the top-level state
//	DeleteModel  -> removal
//
// Each mutation notifies the store's subscription hub synchronously before
// the mutating call returns. Updates and deletes for unknown ids are
// ignored.
package model
