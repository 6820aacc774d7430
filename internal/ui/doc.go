// Package ui bridges tray messages into the GTK main loop.
//
// Loop.Run receives on its own goroutine and hands each message to the
// Scheduler, then waits until the message has been dispatched before it
// receives again. Dispatch therefore runs one message at a time on the UI
// thread, and a slow UI holds the tray back through the capacity-1
// channel instead of queueing messages.
//
// Mixer requests made while dispatching go to an Executor and their
// results come back through the Scheduler, so a slow audio server never
// blocks the UI thread.
package ui
