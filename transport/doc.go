// Package transport contains the description of the service the test
// sequencer exposes and the frontends that adapt it to a concrete
// protocol, keeping the door open to more than one transport without
// touching the orchestration engine underneath.
package transport
