// Package tray implements the volctl status icon as a StatusNotifierItem
// with a com.canonical.dbusmenu menu. The service runs on its own OS thread
// and talks to the UI only through a capacity-1 Channel of Messages; the UI
// answers with state updates that the service renders as icon and tooltip.
package tray
