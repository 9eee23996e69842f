package ownmapdal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jamesrr39/goutil/dirtraversal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

type ImportStatus int

const (
	ImportStatusQueued     ImportStatus = 1
	ImportStatusInProgress ImportStatus = 2
	ImportStatusDone       ImportStatus = 3
	ImportStatusFailed     ImportStatus = 4
)

var importStatusNames = []string{
	"",
	"Queued",
	"In Progress",
	"Done",
	"Failed",
}

const unknownImportStatusName = "unknown"

func (i ImportStatus) String() string {
	if i < ImportStatusQueued || int(i) >= len(importStatusNames) {
		return unknownImportStatusName
	}

	return importStatusNames[i]
}

func (i ImportStatus) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *ImportStatus) UnmarshalText(text []byte) error {
	for idx, name := range importStatusNames {
		if idx != 0 && name == string(text) {
			*i = ImportStatus(idx)
			return nil
		}
	}

	return errorsx.Errorf("unknown import status %q", string(text))
}

type OnImportedSuccessfullyFunc func(dataSource DataSourceConn)

// ProcessImportFunc runs an import into targetPath, reporting progress through onProgress.
type ProcessImportFunc func(targetPath string, onProgress func(tilesDone, tilesTotal int)) (DataSourceConn, errorsx.Error)

type ImportQueueItem struct {
	Name            string        `json:"name"`
	TargetPath      string        `json:"targetPath"`
	Status          ImportStatus  `json:"status"`
	ProgressPercent float64       `json:"progressPercent"`
	TimeInProgress  time.Duration `json:"timeInProgress"`
	Error           string        `json:"error,omitempty"`

	processFunc            ProcessImportFunc
	onImportedSuccessfully OnImportedSuccessfullyFunc
}

// ImportQueue runs imports one at a time, in the order they were added.
type ImportQueue struct {
	logger      *logpkg.Logger
	fs          gofs.Fs
	pathsConfig *PathsConfig
	items       []*ImportQueueItem
	mu          *sync.RWMutex
	running     bool
}

func NewImportQueue(logger *logpkg.Logger, fs gofs.Fs, pathsConfig *PathsConfig) *ImportQueue {
	return &ImportQueue{
		logger:      logger,
		fs:          fs,
		pathsConfig: pathsConfig,
		items:       []*ImportQueueItem{},
		mu:          new(sync.RWMutex),
	}
}

// GetItems returns a snapshot of the queue.
func (q *ImportQueue) GetItems() []ImportQueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()

	items := make([]ImportQueueItem, len(q.items))
	for i, item := range q.items {
		items[i] = *item
	}
	return items
}

// AddItemToQueue queues an import of a new dataset called name. The target path is generated in the data directory, with suffix appended.
func (q *ImportQueue) AddItemToQueue(name, suffix string, processFunc ProcessImportFunc, onImportedSuccessfully OnImportedSuccessfullyFunc) (*ImportQueueItem, errorsx.Error) {
	if name == "" {
		return nil, errorsx.Errorf("no name given for import")
	}

	tryingToGoUp := dirtraversal.IsTryingToTraverseUp(name)
	if tryingToGoUp || filepath.Base(name) != name {
		return nil, errorsx.Errorf("not allowed to traverse directories with name %q", name)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	targetPath, err := GenerateFilePathForNewDiskFile(q.fs, q.pathsConfig.DataDir, name, suffix, q.reservedPaths())
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	item := &ImportQueueItem{
		Name:                   name,
		TargetPath:             targetPath,
		Status:                 ImportStatusQueued,
		processFunc:            processFunc,
		onImportedSuccessfully: onImportedSuccessfully,
	}

	q.items = append(q.items, item)

	if !q.running {
		q.running = true
		go q.processQueue()
	}

	itemCopy := *item
	return &itemCopy, nil
}

// reservedPaths are target paths of imports that haven't finished yet. Must be called with the lock held.
func (q *ImportQueue) reservedPaths() map[string]bool {
	paths := make(map[string]bool)
	for _, item := range q.items {
		paths[item.TargetPath] = true
	}
	return paths
}

func (q *ImportQueue) processQueue() {
	for {
		item := q.getNextItemToProcess()
		if item == nil {
			return
		}

		dataSource, err := q.importQueueItem(item)
		if err != nil {
			q.logger.Error(
				"failed to import queue item. Target path: %q.\nError: %q\nStack: %s\n",
				item.TargetPath, err.Error(), err.Stack())
			continue
		}

		if item.onImportedSuccessfully != nil {
			item.onImportedSuccessfully(dataSource)
		}
	}
}

// getNextItemToProcess marks the first queued item as in progress and returns it. If there are none left, the queue is marked as not running.
func (q *ImportQueue) getNextItemToProcess() *ImportQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.Status == ImportStatusQueued {
			item.Status = ImportStatusInProgress
			return item
		}
	}

	// all imports are finished
	q.running = false
	return nil
}

func (q *ImportQueue) importQueueItem(item *ImportQueueItem) (DataSourceConn, errorsx.Error) {
	startTime := time.Now()

	onProgress := func(tilesDone, tilesTotal int) {
		q.mu.Lock()
		defer q.mu.Unlock()

		item.TimeInProgress = time.Since(startTime)
		if tilesTotal > 0 {
			item.ProgressPercent = float64(tilesDone) * 100 / float64(tilesTotal)
		}
	}

	dataSource, err := item.processFunc(item.TargetPath, onProgress)

	q.mu.Lock()
	defer q.mu.Unlock()

	item.TimeInProgress = time.Since(startTime)
	if err != nil {
		item.Status = ImportStatusFailed
		item.Error = err.Error()
		return nil, errorsx.Wrap(err)
	}

	item.Status = ImportStatusDone
	item.ProgressPercent = 100

	return dataSource, nil
}

// GenerateFilePathForNewDiskFile finds a path in dirPath, starting with fileName, that isn't on disk and isn't in reserved.
func GenerateFilePathForNewDiskFile(fs gofs.Fs, dirPath, fileName, suffix string, reserved map[string]bool) (string, errorsx.Error) {
	var err error
	for i := 0; i < 1000000; i++ {
		var id string
		if i != 0 {
			id = fmt.Sprintf("_%d", i)
		}

		fileName := fmt.Sprintf("%s%s%s", fileName, id, suffix)
		filePath := filepath.Join(dirPath, fileName)

		if reserved[filePath] {
			continue
		}

		_, err = fs.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return "", errorsx.Wrap(err)
			}
		}

		if err == nil {
			// file already exists
			continue
		}

		return filePath, nil
	}

	return "", errorsx.Errorf("ran out of numbers for suffix")
}
