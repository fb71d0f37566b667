// Package scan builds directory trees with file metadata from volumes whose
// filesystem a driver can walk.
package scan

import (
	"context"
	"path"
	"sync"

	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrScanCancelled reports that the context was cancelled while a scan was
// running. Totals collected up to that point are discarded.
var ErrScanCancelled = errors.New("metadata scan cancelled")

type MetadataScanner interface {
	Scan(ctx context.Context, volume *model.Volume, progress ProgressCallback) (*model.MetadataResult, error)
}

// TreeScanner walks a volume filesystem through the driver. A non negative
// MaxDepth bounds the descent, directories on the boundary are still recorded
// as nodes. With more than one worker sibling directories are processed in
// parallel, each worker holding its own filesystem handle.
type TreeScanner struct {
	driver   driver.DataSourceDriver
	maxDepth int
	workers  int
}

func NewTreeScanner(drv driver.DataSourceDriver, maxDepth int, workers int) *TreeScanner {
	if workers < 1 {
		workers = 1
	}
	return &TreeScanner{driver: drv, maxDepth: maxDepth, workers: workers}
}

type workItem struct {
	path  string
	node  *model.DirectoryNode
	depth int
}

type itemResult struct {
	files       int
	directories int
	children    []workItem
	path        string
	err         error
}

func (scanner *TreeScanner) Scan(ctx context.Context, volume *model.Volume, progress ProgressCallback) (*model.MetadataResult, error) {
	handle, err := scanner.driver.OpenFilesystem(volume)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open filesystem of volume %s", volume.Identifier)
	}
	defer handle.Close()

	rootNode := &model.DirectoryNode{Name: "/", Path: "/"}
	tracker := newProgressTracker(progress)

	var files, directories int
	if scanner.workers > 1 {
		files, directories, err = scanner.walkParallel(ctx, volume, handle, rootNode, volume.Encryption, tracker)
	} else {
		files, directories, err = scanner.walkRecursive(ctx, handle, "/", rootNode, 0, volume.Encryption, tracker)
	}
	if err != nil {
		return nil, err
	}
	return &model.MetadataResult{Root: rootNode, TotalFiles: files, TotalDirectories: directories}, nil
}

func (scanner *TreeScanner) walkRecursive(ctx context.Context, handle driver.FilesystemHandle, dirpath string,
	node *model.DirectoryNode, depth int, volumeEncryption model.EncryptionStatus, tracker *progressTracker) (int, int, error) {

	if err := checkCancel(ctx); err != nil {
		return 0, 0, err
	}
	tracker.announce("directory", dirpath)

	files, directories, children, err := scanner.processDirectory(ctx, handle, dirpath, node, depth, volumeEncryption, tracker)
	if err != nil {
		return 0, 0, err
	}
	tracker.markProcessed("directory", dirpath)

	for _, child := range children {
		if err := checkCancel(ctx); err != nil {
			return 0, 0, err
		}
		childFiles, childDirs, err := scanner.walkRecursive(ctx, handle, child.path, child.node, child.depth,
			volumeEncryption, tracker)
		if err != nil {
			return 0, 0, err
		}
		files += childFiles
		directories += childDirs
	}
	return files, directories, nil
}

// walkParallel processes the root on the primary handle, then feeds child
// directories to a worker pool. Results are folded in as workers finish and
// freshly discovered directories go back into the queue.
func (scanner *TreeScanner) walkParallel(ctx context.Context, volume *model.Volume, primary driver.FilesystemHandle,
	root *model.DirectoryNode, volumeEncryption model.EncryptionStatus, tracker *progressTracker) (int, int, error) {

	if err := checkCancel(ctx); err != nil {
		return 0, 0, err
	}
	tracker.announce("directory", "/")

	files, directories, children, err := scanner.processDirectory(ctx, primary, "/", root, 0, volumeEncryption, tracker)
	if err != nil {
		return 0, 0, err
	}
	tracker.markProcessed("directory", "/")
	if len(children) == 0 {
		return files, directories, nil
	}

	work := make(chan workItem)
	results := make(chan itemResult)
	var wg sync.WaitGroup

	for idx := 0; idx < scanner.workers; idx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var handle driver.FilesystemHandle
			defer func() {
				if handle != nil {
					handle.Close()
				}
			}()
			for item := range work {
				if handle == nil {
					opened, err := scanner.driver.OpenFilesystem(volume)
					if err != nil {
						results <- itemResult{path: item.path,
							err: errors.Wrapf(err, "failed to open filesystem of volume %s", volume.Identifier)}
						continue
					}
					handle = opened
				}
				itemFiles, itemDirs, itemChildren, err := scanner.processDirectory(ctx, handle,
					item.path, item.node, item.depth, volumeEncryption, tracker)
				results <- itemResult{files: itemFiles, directories: itemDirs,
					children: itemChildren, path: item.path, err: err}
			}
		}()
	}

	queue := append([]workItem(nil), children...)
	inflight := 0
	var walkErr error
	for walkErr == nil && (len(queue) > 0 || inflight > 0) {
		if err := checkCancel(ctx); err != nil {
			walkErr = err
			break
		}
		var send chan workItem
		var next workItem
		if len(queue) > 0 {
			send = work
			next = queue[0]
		}
		select {
		case send <- next:
			queue = queue[1:]
			inflight++
		case result := <-results:
			inflight--
			if result.err != nil {
				walkErr = result.err
				break
			}
			files += result.files
			directories += result.directories
			tracker.markProcessed("directory", result.path)
			queue = append(queue, result.children...)
		}
	}

	close(work)
	for inflight > 0 {
		<-results
		inflight--
	}
	wg.Wait()

	if walkErr != nil {
		return 0, 0, walkErr
	}
	return files, directories, nil
}

// processDirectory records every entry of one directory on its node. A
// directory that cannot be opened is logged and contributes nothing. The
// returned work items are the subdirectories still within the depth bound,
// subdirectories beyond it are counted but not descended into.
func (scanner *TreeScanner) processDirectory(ctx context.Context, handle driver.FilesystemHandle, dirpath string,
	node *model.DirectoryNode, depth int, volumeEncryption model.EncryptionStatus,
	tracker *progressTracker) (int, int, []workItem, error) {

	if err := checkCancel(ctx); err != nil {
		return 0, 0, nil, err
	}
	entries, err := handle.OpenDir(dirpath)
	if err != nil {
		log.Warningf("failed to open directory %s: %v", dirpath, err)
		return 0, 0, nil, nil
	}

	totalFiles := 0
	totalDirectories := 1
	var children []workItem

	for _, entry := range entries {
		if err := checkCancel(ctx); err != nil {
			return 0, 0, nil, err
		}
		if entry.Name == "" || entry.Name == "." || entry.Name == ".." {
			continue
		}
		childPath := path.Join(dirpath, entry.Name)

		if entry.Kind == model.EntryDir {
			tracker.announce("directory", childPath)
			childNode := &model.DirectoryNode{
				Name:       entry.Name,
				Path:       childPath,
				Owner:      formatOwner(entry.UID, entry.GID),
				CreatedAt:  timeFromUnix(entry.Crtime),
				ChangedAt:  timeFromUnix(entry.Ctime),
				ModifiedAt: timeFromUnix(entry.Mtime),
				AccessedAt: timeFromUnix(entry.Atime),
				Attributes: extractAttributes(entry),
			}
			node.Subdirectories = append(node.Subdirectories, childNode)
			if scanner.maxDepth < 0 || depth < scanner.maxDepth {
				children = append(children, workItem{path: childPath, node: childNode, depth: depth + 1})
			} else {
				totalDirectories++
			}
			continue
		}

		tracker.announce("file", childPath)
		node.Files = append(node.Files, model.FileMetadata{
			Name:       entry.Name,
			Path:       childPath,
			Size:       entry.Size,
			Owner:      formatOwner(entry.UID, entry.GID),
			CreatedAt:  timeFromUnix(entry.Crtime),
			ChangedAt:  timeFromUnix(entry.Ctime),
			ModifiedAt: timeFromUnix(entry.Mtime),
			AccessedAt: timeFromUnix(entry.Atime),
			Attributes: extractAttributes(entry),
			Encryption: volumeEncryption,
		})
		totalFiles++
	}

	tracker.addChildren(len(children))
	return totalFiles, totalDirectories, children, nil
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrScanCancelled
	default:
		return nil
	}
}
