package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"
)

const defaultDebounce = 100 * time.Millisecond

// ErrWatcherFailed 文件监听器初始化失败。
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// FileWatcher 监听词条文件，文件被写入或重新创建时重新读取并把词条加入 Sink。
// 查找树不支持删除，文件中被移除的词条会保留到进程重启。
type FileWatcher struct {
	files    map[string]*FileSource // 绝对路径 -> 来源
	sink     Sink
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	wg      conc.WaitGroup

	mu      sync.Mutex
	reloads map[string]*reloadState

	stopOnce sync.Once
	stop     chan struct{}

	// OnReload 在一次重新加载完成后调用，可为 nil。
	OnReload func(path string, added int, err error)
}

// reloadState 记录单个文件的加载状态。dirty 在加载期间收到新事件时置位，
// 当前加载结束后会再读取一次文件。
type reloadState struct {
	running bool
	dirty   bool
}

// NewFileWatcher 为 paths 创建监听器，监听的是文件所在目录，以便感知编辑器的原子替换。
func NewFileWatcher(paths []string, sink Sink, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatcherFailed, err)
	}

	w := &FileWatcher{
		files:    make(map[string]*FileSource, len(paths)),
		sink:     sink,
		logger:   logger,
		debounce: defaultDebounce,
		watcher:  watcher,
		stop:     make(chan struct{}),
		reloads:  make(map[string]*reloadState, len(paths)),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = NewFileSource(abs)
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// SetDebounce 设置事件合并窗口。
func (w *FileWatcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start 阻塞处理文件事件，直到 ctx 取消或 Stop 被调用。
func (w *FileWatcher) Start(ctx context.Context) error {
	w.logger.Info("term file watcher started", "files", len(w.files))
	defer w.wg.Wait()

	for {
		select {
		case <-w.stop:
			return nil
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("term file watcher error", "error", err)
		}
	}
}

// Stop 关闭监听器，可重复调用。
func (w *FileWatcher) Stop(context.Context) error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
	})
	return err
}

func (w *FileWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	src, ok := w.files[abs]
	if !ok {
		return
	}

	w.mu.Lock()
	st, ok := w.reloads[abs]
	if !ok {
		st = &reloadState{}
		w.reloads[abs] = st
	}
	if st.running {
		st.dirty = true
		w.mu.Unlock()
		return
	}
	st.running = true
	w.mu.Unlock()

	w.wg.Go(func() {
		for {
			w.reload(ctx, src)

			w.mu.Lock()
			if !st.dirty {
				st.running = false
				w.mu.Unlock()
				return
			}
			st.dirty = false
			w.mu.Unlock()
		}
	})
}

func (w *FileWatcher) reload(ctx context.Context, src *FileSource) {
	if w.debounce > 0 {
		select {
		case <-time.After(w.debounce):
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		}
	}

	terms, err := src.Terms(ctx)
	added := 0
	if err == nil {
		added, err = w.sink.AddAll(terms)
	}

	if err != nil {
		w.logger.Warn("term file reload finished with errors", "file", src.Path(), "added", added, "error", err)
	} else {
		w.logger.Info("term file reloaded", "file", src.Path(), "terms", len(terms), "added", added)
	}
	if w.OnReload != nil {
		w.OnReload(src.Path(), added, err)
	}
}
