package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fsnotify/fsnotify"
)

// watch compiles filename, then compiles it again after every change to
// it or to a file it includes, until ctx is done. Compile errors are
// reported on out and watching goes on.
func (s *session) watch(ctx context.Context, filename string, out io.Writer) error {
	files := s.watchOnce(filename, out, []string{filename})
	for {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := watcher.Add(f); err != nil {
				s.logger.Warn("cannot watch file", "file", f, "err", err)
			}
		}

		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return watcher.Close()
			}
			s.logger.Debug("watched file changed", "file", event.Name, "op", event.Op.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return watcher.Close()
			}
			s.logger.Error("watch failed", "err", err)
		case <-ctx.Done():
			watcher.Close()
			return nil
		}

		// An editor may replace the file instead of writing it, so the
		// watcher is rebuilt over the files the new compile read.
		watcher.Close()
		files = s.watchOnce(filename, out, files)
	}
}

func (s *session) watchOnce(filename string, out io.Writer, previous []string) []string {
	u, err := s.compileUnit(filename, out)
	if err != nil {
		s.logger.Error("compile failed", "file", filename, "err", err)
		fmt.Fprintf(out, "compilium: %v\n", err)
	}
	if u == nil || len(u.files) == 0 {
		return previous
	}
	return u.files
}
