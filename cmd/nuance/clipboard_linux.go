//go:build linux

package main

import "fmt"

// copyToClipboard returns an error indicating clipboard is not available.
func copyToClipboard(string) error {
	return fmt.Errorf("clipboard not available on this platform (Linux without X11)")
}
