package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/helios/engine/core"
)

/**
 * @brief Resolves asset-relative paths against the configured root and
 * watches the asset tree for changes on disk. Change notifications are
 * delivered on a channel; reacting to them is the consumer's business.
 */
type AssetManager struct {
	root    string
	watcher *fsnotify.Watcher

	// Changed receives the path of every modified asset file.
	Changed chan string
}

func NewAssetManager(root string) (*AssetManager, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("assets root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets root %s is not a directory", root)
	}

	return &AssetManager{
		root:    root,
		Changed: make(chan string, 16),
	}, nil
}

func (am *AssetManager) Root() string {
	return am.root
}

// Resolve turns an asset-relative path into an absolute one under the root.
func (am *AssetManager) Resolve(name string) string {
	return filepath.Join(am.root, name)
}

// Watch starts recursive change monitoring of the asset tree.
func (am *AssetManager) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.watcher = watcher

	if err := am.addRecursive(am.root); err != nil {
		watcher.Close()
		am.watcher = nil
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				core.LogDebug("asset changed: %s", event.Name)
				select {
				case am.Changed <- event.Name:
				default:
					// Consumer is behind, drop the notification.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				core.LogWarn("asset watcher: %s", err.Error())
			}
		}
	}()

	return nil
}

func (am *AssetManager) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return am.watcher.Add(path)
		}
		return nil
	})
}

func (am *AssetManager) Shutdown() error {
	if am.watcher != nil {
		return am.watcher.Close()
	}
	return nil
}
