// Package main provides the psroi CLI.
package main

import (
	"fmt"
	"os"

	"github.com/born-ml/psroi/backend/cpu"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("psroi %s\n", version)
			return
		case "backends":
			fmt.Printf("CPU: %s\n", cpu.New().Name())
			fmt.Printf("WebGPU: %s\n", gpuStatus())
			return
		}
	}

	fmt.Println("psroi - Position-sensitive ROI pooling for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version     Show version")
	fmt.Println("  backends    Show available compute backends")
}
