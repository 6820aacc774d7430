// Package main is the entry point for volctl, a system tray volume control.
package main

func main() {
	Execute()
}
