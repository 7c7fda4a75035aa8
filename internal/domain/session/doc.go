// Package session keeps a device's workspace in step with its persisted layout record.
//
// Components:
//   - Saver: debounced, fire-and-forget saves of local changes
//   - Syncer: idempotent pulls that replace local state with the stored record
//
// Both share one view of the last hash written or applied, so a pull of the
// record this device just saved is a no-op and applying a pulled record never
// schedules a save of its own.
//
// Save Process:
//  1. A local change (re)arms the debounce timer
//  2. On fire the store is exported to a record
//  3. The record is saved through a circuit breaker
//  4. Failures are logged and retried on the next change or Flush
//
// Example Usage:
//
//	saver := session.NewSaver(store, records, userID, deviceID, logger)
//	syncer := session.NewSyncer(saver)
//	defer saver.Close(ctx)
//	result, err := syncer.Pull(ctx)
package session
