// Package filesystem lists, loads and watches documents on the local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// Ensure Connector implements the loader port.
var _ driven.DocumentLoader = (*Connector)(nil)

// Defaults.
const (
	DefaultMaxFileSize = 50 << 20
	DefaultDebounce    = 100 * time.Millisecond
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem connector closed")

// Option configures a Connector.
type Option func(*Connector)

// WithMaxFileSize bounds the size of files Load will read.
func WithMaxFileSize(n int64) Option {
	return func(c *Connector) { c.maxFileSize = n }
}

// WithDebounce sets how long Watch coalesces events for a path.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) { c.debounce = d }
}

// Connector reads documents below rootPath. Hidden files and directories
// (leading dot) are skipped.
type Connector struct {
	rootPath    string
	maxFileSize int64
	debounce    time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector rooted at rootPath. The path is validated lazily.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath:    rootPath,
		maxFileSize: DefaultMaxFileSize,
		debounce:    DefaultDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the directory the connector walks and watches.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Load reads a single file. uri may be a bare path or a file:// URI.
func (c *Connector) Load(ctx context.Context, uri string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ResolvePath(uri)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrInvalidInput, path, info.Size(), c.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mimeType := DetectMIMEType(path)
	if mimeType == "" {
		mimeType = sniff(content)
	}

	return &domain.RawDocument{
		URI:      path,
		Filename: filepath.Base(path),
		MIMEType: mimeType,
		Content:  content,
	}, nil
}

// FullSync lists every visible regular file below the root. Documents carry
// URI, Filename and MIMEType; Content is left empty for Load. Both channels
// are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("filesystem: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			select {
			case docs <- describe(path):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch emits create, update and delete events for visible files below the
// root, coalescing bursts per path. New subdirectories are watched as they
// appear. The channel closes when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}
	if c.watcher != nil {
		return nil, fmt.Errorf("filesystem: already watching %s", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.RawDocumentChange) {
	defer close(out)
	defer func() {
		c.mu.Lock()
		if c.watcher == watcher {
			c.watcher = nil
		}
		c.mu.Unlock()
		watcher.Close()
	}()

	pending := make(map[string]domain.ChangeType)
	lastSeen := make(map[string]time.Time)
	ticker := time.NewTicker(c.debounce)
	defer ticker.Stop()

	// flush emits paths that have been quiet for a full debounce interval.
	flush := func() bool {
		now := time.Now()
		for path, change := range pending {
			if now.Sub(lastSeen[path]) < c.debounce {
				continue
			}
			delete(pending, path)
			delete(lastSeen, path)

			select {
			case out <- domain.RawDocumentChange{Type: change, Document: describe(path)}:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change, emit := c.handleFsEvent(watcher, event)
			if !emit {
				continue
			}
			pending[event.Name] = merge(pending, event.Name, change)
			lastSeen[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem: watch error: %v", err)

		case <-ticker.C:
			if !flush() {
				return
			}
		}
	}
}

// handleFsEvent classifies an fsnotify event. Directory creations register
// the new subtree and are not emitted.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.ChangeType, bool) {
	if isHidden(filepath.Base(event.Name)) {
		return 0, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return 0, false
		}
		if info.IsDir() {
			if err := addTree(watcher, event.Name); err != nil {
				logger.Warn("filesystem: watch %s: %v", event.Name, err)
			}
			return 0, false
		}
		return domain.ChangeCreated, true

	case event.Has(fsnotify.Write):
		return domain.ChangeUpdated, true
	}
	return 0, false
}

// merge folds a new event into the pending one for the same path.
// A create followed by writes stays a create; a delete always wins
// unless the file is recreated.
func merge(pending map[string]domain.ChangeType, path string, next domain.ChangeType) domain.ChangeType {
	prev, ok := pending[path]
	if !ok {
		return next
	}
	if prev == domain.ChangeCreated && next == domain.ChangeUpdated {
		return domain.ChangeCreated
	}
	if prev == domain.ChangeDeleted && next == domain.ChangeCreated {
		return domain.ChangeUpdated
	}
	return next
}

// Close stops an active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("root path error: %s does not exist", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func describe(path string) domain.RawDocument {
	return domain.RawDocument{
		URI:      path,
		Filename: filepath.Base(path),
		MIMEType: DetectMIMEType(path),
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".c":        "text/x-c",
	".h":        "text/x-c",
	".cpp":      "text/x-c++",
	".rb":       "text/x-ruby",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".csv":      "text/csv",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".css":      "text/css",
	".json":     "application/json",
	".xml":      "application/xml",
}

// DetectMIMEType maps a file extension to a MIME type, or returns "" when
// the extension is unknown.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
	}
	return ""
}

// sniff falls back to content detection for files without a known extension.
func sniff(content []byte) string {
	mt := http.DetectContentType(content)
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		return base
	}
	return mt
}
