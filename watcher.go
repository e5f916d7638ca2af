package main

import (
	"html/template"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// watchTemplates re-parses the template directory whenever a file changes and
// swaps the parsed set into the running engine. Events are debounced so a
// burst of editor writes triggers one reload. Development convenience only;
// production parses once at startup.
func watchTemplates(dir string, r *gin.Engine, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	log.Info("watching templates", zap.String("dir", dir))

	go func() {
		defer w.Close()
		var dirty bool
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					dirty = true
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("template watcher error", zap.Error(err))
			case <-ticker.C:
				if !dirty {
					continue
				}
				dirty = false
				t, err := template.ParseGlob(filepath.Join(dir, "*.html"))
				if err != nil {
					log.Warn("template reload failed", zap.Error(err))
					continue
				}
				r.SetHTMLTemplate(t)
				log.Info("templates reloaded")
			}
		}
	}()
	return nil
}
