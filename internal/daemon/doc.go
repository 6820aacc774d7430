// Package daemon holds the long-running helpers of the tray process:
// config hot reload and desktop notifications about its own failures.
package daemon
