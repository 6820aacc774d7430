// Package theme loads the popup stylesheet. Themes are looked up in
// ~/.config/volctl/themes/ first and then among the bundled ones, and a
// user theme is reloaded when it changes on disk.
package theme
