package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/globalstate/pkg/core"
)

// DefaultPattern selects every supported action file under the root.
const DefaultPattern = "**/*.{json,yaml,yml,csv}"

// DefaultDebounce is how long a file must stay quiet before a watch reads it.
const DefaultDebounce = 50 * time.Millisecond

// Config holds the configuration for an action-log source.
type Config struct {
	Path         string
	Pattern      string // doublestar pattern relative to Path
	Strict       bool   // keep numbers as json.Number
	Debounce     time.Duration
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Batch is the set of actions a watched file contributed in one change.
// Err is set when the file could not be read or decoded; Actions is then empty.
type Batch struct {
	Path    string
	Actions []core.Action
	Err     error
}

// Source reads actions from a directory of action files.
type Source struct {
	Path     string
	config   Config
	decoders map[string]Decoder
	ledger   *ledger

	mu            sync.RWMutex
	watcherActive bool
	lastLoad      *time.Time
}

// NewSource creates a source rooted at config.Path.
func NewSource(config Config) *Source {
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		Path:     config.Path,
		config:   config,
		decoders: DefaultDecoders(config.Strict),
		ledger:   newLedger(),
	}
}

// Files lists the action files matching the pattern, in lexical order of
// their slash-separated relative paths.
func (s *Source) Files(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(s.config.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", s.config.Pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(s.Path), s.config.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Path, err)
	}

	files := matches[:0]
	for _, m := range matches {
		if s.matches(m) {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every action file in order and returns their actions,
// concatenated. The first file that fails stops the load.
func (s *Source) Load(ctx context.Context) ([]core.Action, error) {
	files, err := s.Files(ctx)
	if err != nil {
		return nil, err
	}

	var actions []core.Action
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		more, err := s.LoadFile(ctx, rel)
		if err != nil {
			return nil, err
		}
		actions = append(actions, more...)
	}

	s.config.Logger.Debug("action log loaded", "path", s.Path, "files", len(files), "actions", len(actions))
	s.recordLoad()
	return actions, nil
}

// LoadFile reads the actions of one file, addressed relative to the root.
func (s *Source) LoadFile(ctx context.Context, relPath string) ([]core.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, actions, err := s.read(relPath)
	if err != nil {
		return nil, err
	}
	s.ledger.Set(relPath, ledgerEntry{LastModified: info.ModTime(), Applied: len(actions)})
	return actions, nil
}

func (s *Source) read(relPath string) (os.FileInfo, []core.Action, error) {
	dec, ok := s.decoders[strings.ToLower(path.Ext(relPath))]
	if !ok {
		return nil, nil, fmt.Errorf("%s: unsupported extension", relPath)
	}

	full := filepath.Join(s.Path, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", relPath, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", relPath, err)
	}

	docs, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", relPath, err)
	}

	actions := make([]core.Action, 0, len(docs))
	for i, d := range docs {
		a, err := d.Action()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: action %d: %w", relPath, i, err)
		}
		actions = append(actions, a)
	}
	return info, actions, nil
}

// pending returns the actions of relPath not handed out yet. A file that
// grew yields only its new tail; a file that was rewritten without growing
// yields all of its actions again. An unchanged file yields nothing.
func (s *Source) pending(relPath string) (Batch, bool) {
	full := filepath.Join(s.Path, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		s.ledger.Delete(relPath)
		return Batch{}, false
	}
	if err == nil && s.ledger.Fresh(relPath, info.ModTime()) {
		return Batch{}, false
	}

	info, actions, err := s.read(relPath)
	if err != nil {
		return Batch{Path: relPath, Err: err}, true
	}

	fresh := actions
	if prev, ok := s.ledger.Get(relPath); ok && len(actions) > prev.Applied {
		fresh = actions[prev.Applied:]
	}
	s.ledger.Set(relPath, ledgerEntry{LastModified: info.ModTime(), Applied: len(actions)})

	if len(fresh) == 0 {
		return Batch{}, false
	}
	return Batch{Path: relPath, Actions: fresh}, true
}

// supported reports whether relPath has a decoder.
func (s *Source) supported(relPath string) bool {
	_, ok := s.decoders[strings.ToLower(path.Ext(relPath))]
	return ok
}

// matches reports whether relPath is an action file this source reads.
func (s *Source) matches(relPath string) bool {
	if !s.supported(relPath) || hidden(relPath) {
		return false
	}
	ok, err := doublestar.Match(s.config.Pattern, relPath)
	return err == nil && ok
}

// rel converts an absolute event path to a slash-separated relative path.
func (s *Source) rel(name string) (string, error) {
	r, err := filepath.Rel(s.Path, name)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", name, s.Path)
	}
	return filepath.ToSlash(r), nil
}

// hidden reports dot files, dot directories and editor swap files.
func hidden(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, "~") {
			return true
		}
	}
	return false
}

// Watch streams the actions of files created or changed under the root
// until ctx ends. The watcher runs under a supervisor and is restarted when
// it fails.
func (s *Source) Watch(ctx context.Context) (<-chan Batch, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", s.Path, err)
	}
	return s.supervise(ctx)
}

func (s *Source) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("action source error", "error", err)
}
