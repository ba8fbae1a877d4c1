package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KevinMFinch/Cos426-final/engine/assets/loaders"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoLoader      = errors.New("no loader registered for asset type")
	ErrClosed        = errors.New("asset manager already shut down")
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetOp is what happened to a watched asset.
type AssetOp int

const (
	AssetChanged AssetOp = iota
	AssetRemoved
)

// AssetEvent reports a change below the assets directory. Path is relative
// to the assets directory, with forward slashes.
type AssetEvent struct {
	Path string
	Type metadata.ResourceType
	Op   AssetOp
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	handlersMutex sync.RWMutex
	handlers      []func(AssetEvent)

	done        chan struct{}
	stopped     chan struct{}
	fsnotify    *fsnotify.Watcher
	initialized bool
	isClosed    bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

/**
 * @brief Indexes every known asset below assetsDir and registers the
 * built-in loaders. With watch set, the directory tree is also watched and
 * OnChange handlers are called as files change.
 */
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if am.isClosed {
		return ErrClosed
	}
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	// Register loaders
	am.registerLoader(metadata.ResourceTypeMD5Mesh, &loaders.MD5MeshLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})

	if err := am.watchRecursive(root, watch); err != nil {
		return err
	}
	am.initialized = true
	if watch {
		go am.start()
	} else {
		close(am.stopped)
	}
	core.LogInfo("asset manager indexed %d assets under %s", am.Count(), root)
	return nil
}

// Root returns the absolute assets directory.
func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// RegisterLoader replaces or adds the loader for an asset type.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.registerLoader(assetType, loader)
}

// OnChange registers a handler for asset events. Handlers run on the watcher goroutine.
func (am *AssetManager) OnChange(handler func(AssetEvent)) {
	am.handlersMutex.Lock()
	defer am.handlersMutex.Unlock()
	am.handlers = append(am.handlers, handler)
}

// Exists reports whether name (relative to the assets directory) is indexed.
func (am *AssetManager) Exists(name string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	_, ok := am.assets[NormalizeName(name)]
	return ok
}

// Count returns the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	key := NormalizeName(name)

	am.mutex.Lock()
	asset, exists := am.assets[key]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[key] = asset // Update the loaded time
	}
	loader, loaderExists := am.loaders[resourceType]
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
	}
	if asset.Type != resourceType {
		return nil, fmt.Errorf("asset %s is a %s, not a %s", key, asset.Type, resourceType)
	}
	if !loaderExists {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, resourceType)
	}

	core.LogDebug("loading %s %s", resourceType, key)
	return loader.Load(filepath.Join(am.root, filepath.FromSlash(key)), resourceType, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLoader, asset.Type)
	}
	return loader.Unload(asset)
}

/**
 * @brief Stops the watcher goroutine and releases the fsnotify watcher.
 */
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	if am.initialized {
		<-am.stopped
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, true); err != nil {
						core.LogError("watching %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if rel, t := am.handleFileEvent(e.Name); t != metadata.ResourceTypeNone {
					am.dispatch(AssetEvent{Path: rel, Type: t, Op: AssetChanged})
				}
			}
			//Can't stat a deleted directory, so just pretend that it's always a directory and
			//try to remove from the watch list...  we really have no clue if it's a directory or not...
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if rel, t := am.removeAsset(e.Name); t != metadata.ResourceTypeNone {
					am.dispatch(AssetEvent{Path: rel, Type: t, Op: AssetRemoved})
				}
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) dispatch(e AssetEvent) {
	am.handlersMutex.RLock()
	handlers := append([]func(AssetEvent){}, am.handlers...)
	am.handlersMutex.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}

// watchRecursive indexes every file under path and, when watch is set, adds
// each directory to the watch list. A file created between the walk and the
// watch being added is missed until it is written again.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (string, metadata.ResourceType) {
	rel, ok := am.relative(path)
	if !ok {
		return "", metadata.ResourceTypeNone
	}
	assetType := determineAssetType(rel)
	if assetType == metadata.ResourceTypeNone {
		return rel, assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path: rel,
		Type: assetType,
	}
	return rel, assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (string, metadata.ResourceType) {
	rel, ok := am.relative(path)
	if !ok {
		return "", metadata.ResourceTypeNone
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[rel]
	if !ok {
		return rel, metadata.ResourceTypeNone
	}
	delete(am.assets, rel)
	return rel, info.Type
}

func (am *AssetManager) relative(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(am.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// NormalizeName turns a user supplied asset name into the key used by the index.
func NormalizeName(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "./")
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md5mesh":
		return metadata.ResourceTypeMD5Mesh
	case ".tga", ".png", ".jpg", ".jpeg", ".bmp":
		return metadata.ResourceTypeImage
	default:
		return metadata.ResourceTypeNone
	}
}
