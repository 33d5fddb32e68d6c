//go:build !windows

package main

func gpuStatus() string {
	return "not available on this platform"
}
