//go:build windows

package main

import "github.com/born-ml/psroi/backend/webgpu"

func gpuStatus() string {
	if webgpu.IsAvailable() {
		return "available"
	}
	return "not available"
}
