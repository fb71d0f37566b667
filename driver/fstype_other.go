//go:build !linux && !windows

package driver

import "github.com/aarsakian/CryptoTriage/model"

func hostFilesystemType(root string) model.FileSystemType {
	return model.FSUnknown
}
