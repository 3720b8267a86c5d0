// Package extio defines a single capability contract through which programs
// perform every kind of external I/O: files, object storage, networking,
// databases, processes, queues, inter-process messaging, timers,
// configuration, telemetry and cryptography.
//
// A Backend supplies the contract for one environment. Its capability
// groups are reached through accessors such as Backend.File or
// Backend.ObjectStore, and every operation of every group has a default
// body returning an Unsupported error that names the operation
// (for example "Network.request"). A backend only writes the operations it
// can serve:
//
//	type store struct {
//		extio.UnimplementedBackend
//		...
//	}
//
//	func (s *store) ObjectStore() extio.ObjectStoreCapability { return s.objects }
//
// Callers select a backend explicitly, either by holding it or by carrying
// it in a context with WithBackend and FromContext. There is no process-wide
// registry. Compose routes groups of one program to several backends, and
// Guard wraps any backend so cancellation, panics and malformed results are
// settled the same way everywhere.
//
// # Failures
//
// Every failure is an *errors.Error carrying a Kind from a closed taxonomy,
// the operation name, a message and an optional backend code. End of a
// stream and an expired receive timeout are not failures: they are reported
// through Frame.EndOfStream and Delivery.TimedOut.
//
// # Extending the contract
//
// The contract only grows:
//
//  1. A new operation is added to its group interface together with a
//     default body on the group's Unimplemented struct. Existing backends
//     keep compiling and answer the new operation with Unsupported.
//  2. A new group gets its own interface, Unimplemented struct and accessor
//     on UnimplementedBackend, following the same rule.
//  3. The signature of an existing operation never changes in place. A
//     replacement is added under a new name and the old operation is marked
//     Deprecated, while still being routed to the behavior backends gave it.
//     Process.Exec, superseded by Process.Spawn and Process.Wait, is such an
//     operation.
//  4. New input fields must have a zero value meaning the previous behavior.
//
// Embedding the Unimplemented structs is mandatory; the unexported marker
// methods on each interface enforce it.
package extio
