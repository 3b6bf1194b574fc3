// Package integration contains the Order Source bounded context.
// This context exposes the merchant's orders, inventory and shipments to an
// external shipping platform through the fixed Order Source API contract.
//
// Key concepts:
//   - Contract types: typed request/response envelopes for every operation
//   - Cursor: opaque pagination token carrying page position and totals
//   - Batch: per-item execution that never aborts on a single failing item
//   - AccessCredential: per-scope static token used by the Authenticator
//   - InventoryItemID: composite {sku, source} identifier used on the wire
//
// Design Pattern: Ports & Adapters
//   - Ports (CommerceCatalog, InventorySource, OrderRepository, ...) are defined here
//   - Adapters (GORM, Redis) are in the infrastructure layer
package integration
