// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command rhidemo renders a rotating triangle for a number of frames, reads
// back the last one and saves it as PNG.
//
// Usage:
//
//	rhidemo [-config rhi.toml] [-backend null|native] [-frames 60] [-out frame.png] [-thumb 128] [-v]
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend"
	_ "github.com/gogpu/rhi/backend/native"
	_ "github.com/gogpu/rhi/backend/null"
)

func main() {
	var (
		configPath  = flag.String("config", "", "TOML or YAML device config")
		backendName = flag.String("backend", "", "backend name, overrides the config")
		frames      = flag.Int("frames", 60, "frames to render")
		output      = flag.String("out", "frame.png", "PNG file for the last frame, empty to skip")
		thumb       = flag.Int("thumb", 0, "also write a thumbnail this many pixels wide")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := rhi.Config{}
	if *configPath != "" {
		c, err := rhi.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	level, err := cfg.Level()
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dev, err := backend.OpenConfig(cfg, rhi.WithLogger(logger))
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer dev.Close()

	img, err := run(dev, *frames)
	if err != nil {
		log.Fatal(err)
	}
	if p, ok := dev.Profiler().(*rhi.CountingProfiler); ok {
		logger.Debug("profile", "stats", p.Stats().String())
		report(os.Stderr, p.Stats())
	}
	if *output == "" || img == nil {
		return
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatal(err)
	}
	logger.Info("saved frame", "path", *output, "size", img.Bounds().Size())
	if *thumb > 0 {
		path := "thumb_" + *output
		if err := savePNG(path, thumbnail(img, *thumb)); err != nil {
			log.Fatal(err)
		}
		logger.Info("saved thumbnail", "path", path)
	}
}

// run renders the frames and returns the read back contents of the last.
func run(dev *rhi.Device, frames int) (*image.RGBA, error) {
	if frames < 1 {
		return nil, errors.New("rhidemo: need at least one frame")
	}
	sc := dev.NewSwapChain()
	sc.SetName("rhidemo")
	sc.SetRenderPassDescriptor(sc.NewCompatibleRenderPassDescriptor())
	if err := sc.BuildOrResize(); err != nil {
		return nil, err
	}
	defer sc.Release()

	s, err := newScene(dev, sc.RenderPassDescriptor())
	if err != nil {
		return nil, err
	}
	defer s.release()

	var result rhi.ReadbackResult
	for i := 0; i < frames; i++ {
		res := dev.BeginFrame(sc, 0)
		if res == rhi.FrameOpSwapChainOutOfDate {
			if err := sc.BuildOrResize(); err != nil {
				return nil, err
			}
			res = dev.BeginFrame(sc, 0)
		}
		if res != rhi.FrameOpSuccess {
			return nil, fmt.Errorf("rhidemo: begin frame %d: %v", i, res)
		}
		var readback *rhi.ResourceUpdateBatch
		if i == frames-1 {
			readback = dev.NextResourceUpdateBatch()
			readback.ReadBackTexture(rhi.ReadbackDescription{}, &result)
		}
		if err := s.record(dev, sc, i, readback); err != nil {
			dev.EndFrame(sc, 0)
			return nil, fmt.Errorf("rhidemo: frame %d: %w", i, err)
		}
		if res := dev.EndFrame(sc, 0); res != rhi.FrameOpSuccess {
			return nil, fmt.Errorf("rhidemo: end frame %d: %v", i, res)
		}
	}
	if result.Data == nil {
		return nil, nil
	}
	return result.Image()
}

// report prints a short resource summary with grouped digits.
func report(w io.Writer, s rhi.ProfilerStats) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "frames:   %d begun, %d ended\n", s.FramesBegun, s.FramesEnded)
	p.Fprintf(w, "buffers:  %d created, %d released, %d bytes live\n", s.BuffersCreated, s.BuffersReleased, s.LiveBufferBytes)
	p.Fprintf(w, "textures: %d created, %d released, %d bytes live\n", s.TexturesCreated, s.TexturesReleased, s.LiveTextureBytes)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// thumbnail scales img to width w, keeping the aspect ratio.
func thumbnail(img image.Image, w int) image.Image {
	b := img.Bounds()
	h := max(b.Dy()*w/max(b.Dx(), 1), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
