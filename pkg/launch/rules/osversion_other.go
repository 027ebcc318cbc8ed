//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package rules

func osVersion() string { return "" }
