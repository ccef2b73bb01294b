// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command shaderdesc prints the interface description of the entry points
// in WGSL files.
//
// Usage:
//
//	shaderdesc [-json] [-entry name] [-cbor dir] [-watch] file.wgsl...
//
// With -cbor, the binary description of every entry point is written to
// dir/<file>.<entry>.desc. With -watch, the files are reflected again
// whenever they change until interrupted.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/rhi/shaderdesc"
	"github.com/gogpu/rhi/shaderdesc/wgslreflect"
)

type options struct {
	json    bool
	entry   string
	cborDir string
}

func main() {
	var opts options
	flag.BoolVar(&opts.json, "json", false, "print JSON instead of text")
	flag.StringVar(&opts.entry, "entry", "", "only this entry point")
	flag.StringVar(&opts.cborDir, "cbor", "", "write binary descriptions into this directory")
	watch := flag.Bool("watch", false, "reflect again when a file changes")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		shaderdesc.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	failed := false
	for _, path := range flag.Args() {
		if err := process(os.Stdout, path, opts); err != nil {
			log.Print(err)
			failed = true
		}
	}
	if *watch {
		if err := watchFiles(flag.Args(), opts); err != nil {
			log.Fatal(err)
		}
		return
	}
	if failed {
		os.Exit(1)
	}
}

// process reflects one file and prints or writes its descriptions.
func process(w io.Writer, path string, opts options) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	eps, err := wgslreflect.ReflectAll(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	found := false
	for _, ep := range eps {
		if opts.entry != "" && ep.Name != opts.entry {
			continue
		}
		found = true
		if opts.json {
			fmt.Fprintf(w, "%s\n", ep.Description.ToJSON())
		} else {
			fmt.Fprintf(w, "%s: %s %s", path, ep.Stage, ep.Name)
			if ep.Stage == wgslreflect.Compute {
				fmt.Fprintf(w, " @workgroup_size(%d, %d, %d)", ep.Workgroup[0], ep.Workgroup[1], ep.Workgroup[2])
			}
			fmt.Fprintf(w, "\n%s\n", ep.Description)
		}
		if opts.cborDir != "" {
			if err := writeBinary(opts.cborDir, path, ep); err != nil {
				return err
			}
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", path, wgslreflect.ErrNoEntryPoint)
	}
	return nil
}

func writeBinary(dir, path string, ep wgslreflect.EntryPoint) error {
	data, err := ep.Description.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%s: %s: %w", path, ep.Name, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(dir, base+"."+ep.Name+".desc")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	slog.Debug("wrote description", "path", out, "bytes", len(data))
	return nil
}

// watchFiles reflects files again on every write until interrupted. The
// parent directories are watched so editors that replace files on save
// are followed.
func watchFiles(paths []string, opts options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	wanted := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	log.Printf("watching %d file(s)", len(wanted))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !wanted[event.Name] || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := process(os.Stdout, event.Name, opts); err != nil {
				log.Print(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Print(err)
		case <-interrupt:
			return nil
		}
	}
}
