// Package monitor runs the periodic sampler that keeps the gauge object
// current and raises edge-triggered threshold alerts.
//
// Each tick:
//  1. sample the measured quantity
//  2. clamp it into the gauge's constraint
//  3. write it through the store's privileged path
//  4. read the threshold live from the store
//  5. feed "sample > threshold" to the edge detector
//  6. on a rising edge, emit trap and message independently
//
// Only the Below -> Above transition notifies. Sustained overage and the
// fall back below are silent. Notification failures are logged and never
// stop the loop.
//
// The loop is a ticker plus a context: cancelling stops further ticks
// but never interrupts a tick in progress. Ticks missed while the process
// was delayed are not replayed.
package monitor
