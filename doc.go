// Package lumino is the inbound-message processing core of a payment-channel
// network node. It classifies signed protocol messages arriving from peers
// and translates each into a durable state change that drives the node's
// off-chain transfer state machine.
//
// # Architecture
//
// Control flows strictly downward:
//
//	dispatcher -> handler -> (role/route resolution) -> state-change submission
//	                                                 -> acknowledgment store (delegated clients)
//
// The packages, leaf to root:
//
//   - transfer: primitive protocol types, the immutable chain-state
//     snapshot, and pure role/secret resolution over it
//   - message: the closed set of signed protocol message variants
//   - transfer/statechange: the state changes handlers emit
//   - routing: route resolution for refunded transfers
//   - lightclient: ordered, idempotent acknowledgment storage for
//     delegated ("light") clients
//   - wal: the durable log contract with in-memory and NATS JetStream KV
//     implementations
//   - handler: the message dispatcher and the per-kind handlers
//   - service: the node service owning the serialized state-change
//     pipeline and the message consumption loop
//
// Transport, signing, balance-proof arithmetic, pathfinding, and chain
// reading are external collaborators consumed through narrow interfaces.
package lumino
