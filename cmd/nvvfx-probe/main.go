// nvvfx-probe is a diagnostic tool: it loads the NVIDIA driver and SDK
// libraries the same way the filters do and reports what it found. Exit
// code 0 means the machine can run the filters.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/vfx"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ok := true

	bridgeRef, err := cuda.GetBridge(ctx)
	if err != nil {
		fmt.Printf("CUDA:          unavailable: %v\n", err)
		ok = false
	} else {
		fmt.Printf("CUDA:          OK\n")
		defer bridgeRef.Release(ctx)
	}

	cvRef, err := cv.Get(ctx)
	if err != nil {
		fmt.Printf("image library: unavailable: %v\n", err)
		ok = false
	} else {
		fmt.Printf("image library: OK\n")
		defer cvRef.Release(ctx)
	}

	vfxRef, err := vfx.Get(ctx)
	if err != nil {
		fmt.Printf("Video Effects: unavailable: %v\n", err)
		ok = false
	} else {
		vfxLib := vfxRef.Value()
		version := "unknown version"
		if v, err := vfxLib.Version(); err == nil {
			version = v.String()
		}
		modelDir := vfxLib.ModelDir()
		if modelDir == "" {
			modelDir = "models not found"
		}
		fmt.Printf("Video Effects: OK (%s, %s)\n", version, modelDir)
		defer vfxRef.Release(ctx)
	}

	if !ok {
		fmt.Println("result:        no provider can run on this machine")
		os.Exit(1)
	}
	fmt.Println("result:        OK")
}
