// Package subscription implements the change notification hub for the model
// registry.
//
// Observers register at one of three scopes:
//   - the whole registry: every accepted mutation
//   - a model id: create, update and destroy of that model
//   - a (model id, key) pair: updates whose patch names that key
//
// A change is delivered to each matching subscriber exactly once,
// synchronously, in the order key, model, registry. Within a scope,
// subscribers are called in registration order.
//
// # Unsubscribing
//
// Subscribe returns an idempotent unsubscribe function. Callbacks run outside
// the hub lock, so a subscriber may unsubscribe itself or others from inside
// a callback. A subscriber removed during a notification round is not called
// if it has not been reached yet.
package subscription
