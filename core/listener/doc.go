// Package listener implements the shared-memory IPC rendezvous (spec.md
// §4.3): a control channel (a Unix domain socket) used only to hand a
// peer the file descriptors for a freshly allocated ring pair + waiter
// pair, after which all traffic flows over core/ring directly with no
// further syscalls on the control channel. Connection lifecycle
// follows api.ConnectionState: Listening/Rendezvous apply before a
// Connection exists, Connected/Closed apply to one once rendezvous
// completes.
package listener
