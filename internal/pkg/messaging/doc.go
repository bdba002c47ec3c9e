// Package messaging publishes and consumes domain events over a broker
// chosen at startup (NSQ, NATS, Kafka, Google Pub/Sub, or in-process
// memory for local runs and tests).
//
// Headers travel as native headers on NATS and Kafka and as attributes on
// Pub/Sub. NSQ has no header support, consumers see none.
package messaging
