package toolpath

import (
	"io/fs"

	"github.com/temirov/otatools/internal/filesystem"
)

// ReadExecutePermissions are the bits GrantExecutable adds: r-x for owner, group, and other.
const ReadExecutePermissions fs.FileMode = 0o555

const preservedModeBitsConstant = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// GrantExecutable adds ReadExecutePermissions to the file's existing mode.
//
// Bits are only ever added, so a more permissive mode such as world-writable
// is kept as it is. File system errors are returned unchanged.
func GrantExecutable(fileSystem filesystem.FileSystem, path string) error {
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}

	fileInfo, statError := fileSystem.Stat(path)
	if statError != nil {
		return statError
	}

	currentMode := fileInfo.Mode() & preservedModeBitsConstant
	grantedMode := currentMode | ReadExecutePermissions
	if grantedMode == currentMode {
		return nil
	}
	return fileSystem.Chmod(path, grantedMode)
}
