// Package ipc provides JSON-RPC communication between the doro CLI (or a
// chat adapter) and the dorod daemon over a Unix domain socket.
package ipc
