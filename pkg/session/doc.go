// Package session ties the registry together for one kernel connection.
//
// A Session owns a model store, the router that feeds it, and one outbound
// comm per live model. Nothing is global: two sessions in one process share
// no state.
//
//	inbound:  Source -> HandleMessage -> router -> store -> subscribers
//	outbound: RequestUpdate / SendCustom -> comm -> Sender
//
// Outbound calls do not touch the local store. The kernel is authoritative
// and echoes accepted state back as inbound updates.
package session
