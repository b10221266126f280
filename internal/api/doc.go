// Package api provides the shared service facade and transport DTOs used
// by the IPC server and the CLI's direct mode.
package api
