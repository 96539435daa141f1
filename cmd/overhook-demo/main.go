// Command overhook-demo is an overlay module built with
// -buildmode=c-shared. Loading it into a process installs the hooks for the
// configured graphics API and draws a small statistics window.
//
// The config file is named by OVERHOOK_CONFIG and defaults to
// overhook.toml in the host's working directory.
package main

func main() {}
