package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/svelteparse/runtime/reparse"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Re-check components as they are saved",
		Long:  "Check every " + componentExt + " file under DIR, then re-check each one when it is written. Edits inside a single mustache region re-parse only that region.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := optionalArg(args)
			if dir == "" {
				dir = "."
			}
			return a.watch(cmd.Context(), dir, nil)
		},
	}
}

// watcher keeps one incremental document per component.
type watcher struct {
	a    *app
	fsw  *fsnotify.Watcher
	docs map[string]*reparse.Document
}

// watch runs until ctx is done. ready, if set, is called once the initial
// check has finished and every directory is watched.
func (a *app) watch(ctx context.Context, dir string, ready func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return &CLIError{Type: "watch", Message: "could not start file watcher", Details: err.Error()}
	}
	defer func() { _ = fsw.Close() }()

	w := &watcher{a: a, fsw: fsw, docs: make(map[string]*reparse.Document)}
	if err := w.addTree(dir); err != nil {
		return err
	}
	a.logger.Info("watching", "dir", dir, "components", len(w.docs))
	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "err", err)
		}
	}
}

// addTree watches dir and every directory below it, checking the
// components it finds.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if filepath.Ext(path) == componentExt {
			w.reload(path)
		}
		return nil
	})
}

func (w *watcher) handle(event fsnotify.Event) {
	path := event.Name
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.a.logger.Warn("watch error", "err", err)
			}
			return
		}
		if filepath.Ext(path) == componentExt {
			w.reload(path)
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		if filepath.Ext(path) == componentExt {
			w.reload(path)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.docs, path)
	}
}

// reload brings the document for path up to date with the file and prints
// its diagnostics.
func (w *watcher) reload(path string) {
	a := w.a
	src, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("read failed", "file", path, "err", err)
		return
	}

	doc, ok := w.docs[path]
	if ok {
		e := diffEdit(doc.Source(), src)
		if e.Delete == 0 && e.Insert == "" {
			return
		}
		res, err := doc.Apply(e)
		if err != nil {
			a.logger.Warn("reparse failed", "file", path, "err", err)
			return
		}
		a.logger.Debug("reparsed", "file", path, "region", res.Region, "full", res.Full, "changed", res.Changed)
		if !res.Changed {
			return
		}
	} else {
		opts, err := a.parserOptions(path)
		if err != nil {
			FormatError(a.stderr, err, a.color)
			return
		}
		doc = reparse.Open(src, opts...)
		w.docs[path] = doc
	}

	tree := doc.Tree()
	status := Colorize("ok", ColorGreen, a.color)
	if tree.HasErrors() {
		status = Colorize(plural(len(tree.Errors), "error"), ColorRed, a.color)
	}
	_, _ = fmt.Fprintf(a.stdout, "%s: %s\n", Colorize(path, ColorCyan, a.color), status)
	writeDiagnostics(a.stdout, tree, a.color)
}

// diffEdit returns the single edit turning old into next: everything
// between their common prefix and common suffix.
func diffEdit(old, next []byte) reparse.Edit {
	p := 0
	for p < len(old) && p < len(next) && old[p] == next[p] {
		p++
	}
	s := 0
	for s < len(old)-p && s < len(next)-p && old[len(old)-1-s] == next[len(next)-1-s] {
		s++
	}
	return reparse.Edit{
		Offset: p,
		Delete: len(old) - p - s,
		Insert: string(next[p : len(next)-s]),
	}
}
