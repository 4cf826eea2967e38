package toolpath

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/filesystem"
	pathutils "github.com/temirov/otatools/internal/utils/path"
)

const (
	binaryDirectoryNameConstant               = "bin"
	executableSearchMaskConstant              = 0o111
	resolvedFromSearchPathMessageConstant     = "Resolved tool from search path"
	resolvedFromToolsDirectoryMessageConstant = "Resolved tool from tools directory"
	searchPathMissMessageConstant             = "Tool not found on search path"
	logFieldToolNameConstant                  = "tool"
	logFieldPathConstant                      = "path"
	logFieldToolsDirectoryConstant            = "tools_directory"
	explicitPathNotExecutableMessageConstant  = "not an executable file"
)

// ToolName identifies an external program by its file name.
type ToolName string

// ResolutionSource records where an executable was found.
type ResolutionSource string

// Resolution sources.
const (
	SourceSearchPath     ResolutionSource = ResolutionSource("search_path")
	SourceToolsDirectory ResolutionSource = ResolutionSource("tools_directory")
	SourceExplicitPath   ResolutionSource = ResolutionSource("explicit_path")
)

// ExecutableRecord describes a resolved executable. It is derived on demand and never cached.
type ExecutableRecord struct {
	ToolName ToolName
	Path     string
	Source   ResolutionSource
}

// PathLookup finds an executable on the host search path.
type PathLookup func(name string) (string, error)

// Resolver locates tools on the search path, falling back to <tools_dir>/bin/<name>.
type Resolver struct {
	toolsDirectory string
	pathLookup     PathLookup
	fileSystem     filesystem.FileSystem
	logger         *zap.Logger
}

// NewResolver constructs a Resolver backed by exec.LookPath and the operating system file system.
// An empty toolsDirectory disables the tools directory fallback.
func NewResolver(toolsDirectory string, logger *zap.Logger) (*Resolver, error) {
	return NewResolverWithDependencies(toolsDirectory, exec.LookPath, filesystem.OSFileSystem{}, logger)
}

// NewResolverWithDependencies constructs a Resolver with injected collaborators.
func NewResolverWithDependencies(toolsDirectory string, pathLookup PathLookup, fileSystem filesystem.FileSystem, logger *zap.Logger) (*Resolver, error) {
	if pathLookup == nil {
		pathLookup = exec.LookPath
	}
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	absoluteToolsDirectory := ""
	trimmedToolsDirectory := strings.TrimSpace(toolsDirectory)
	if len(trimmedToolsDirectory) > 0 {
		expandedToolsDirectory := pathutils.NewExpander().Expand(trimmedToolsDirectory)
		resolvedDirectory, absoluteError := fileSystem.Abs(expandedToolsDirectory)
		if absoluteError != nil {
			return nil, absoluteError
		}
		absoluteToolsDirectory = resolvedDirectory
	}

	return &Resolver{
		toolsDirectory: absoluteToolsDirectory,
		pathLookup:     pathLookup,
		fileSystem:     fileSystem,
		logger:         logger,
	}, nil
}

// ToolsDirectory returns the absolute tools directory, or an empty string when none is configured.
func (resolver *Resolver) ToolsDirectory() string {
	return resolver.toolsDirectory
}

// Resolve locates the named tool on the search path, then in the tools directory.
//
// A tools directory hit is granted read and execute permission for owner,
// group, and other before it is returned.
func (resolver *Resolver) Resolve(name ToolName) (ExecutableRecord, error) {
	if !validToolName(name) {
		return ExecutableRecord{}, ToolNotFoundError{ToolName: name, ToolsDirectory: resolver.toolsDirectory}
	}

	searchPathRecord, searchPathError := resolver.resolveFromSearchPath(name)
	if searchPathError == nil {
		return searchPathRecord, nil
	}
	resolver.logger.Debug(searchPathMissMessageConstant, zap.String(logFieldToolNameConstant, string(name)), zap.Error(searchPathError))

	return resolver.ResolveFromToolsDirectory(name)
}

// ResolveFromToolsDirectory locates the tool only under <tools_dir>/bin and grants it execute permission.
func (resolver *Resolver) ResolveFromToolsDirectory(name ToolName) (ExecutableRecord, error) {
	notFoundError := ToolNotFoundError{ToolName: name, ToolsDirectory: resolver.toolsDirectory}
	if !validToolName(name) || len(resolver.toolsDirectory) == 0 {
		return ExecutableRecord{}, notFoundError
	}

	candidatePath := filepath.Join(resolver.toolsDirectory, binaryDirectoryNameConstant, string(name))
	fileInfo, statError := resolver.fileSystem.Stat(candidatePath)
	if statError != nil || !fileInfo.Mode().IsRegular() {
		return ExecutableRecord{}, notFoundError
	}

	if grantError := GrantExecutable(resolver.fileSystem, candidatePath); grantError != nil {
		return ExecutableRecord{}, grantError
	}

	resolver.logger.Debug(
		resolvedFromToolsDirectoryMessageConstant,
		zap.String(logFieldToolNameConstant, string(name)),
		zap.String(logFieldPathConstant, candidatePath),
		zap.String(logFieldToolsDirectoryConstant, resolver.toolsDirectory),
	)

	return ExecutableRecord{ToolName: name, Path: candidatePath, Source: SourceToolsDirectory}, nil
}

// LocateExecutable implements execshell.ExecutableLocator.
//
// Names containing a path separator are accepted only when they point at an
// existing regular file with an execute bit set.
func (resolver *Resolver) LocateExecutable(commandName string) (string, error) {
	if strings.ContainsRune(commandName, filepath.Separator) || strings.ContainsRune(commandName, '/') {
		explicitRecord, explicitError := resolver.resolveExplicitPath(commandName)
		if explicitError != nil {
			return "", explicitError
		}
		return explicitRecord.Path, nil
	}

	executableRecord, resolveError := resolver.Resolve(ToolName(commandName))
	if resolveError != nil {
		return "", resolveError
	}
	return executableRecord.Path, nil
}

func (resolver *Resolver) resolveFromSearchPath(name ToolName) (ExecutableRecord, error) {
	lookedUpPath, lookupError := resolver.pathLookup(string(name))
	if lookupError != nil {
		return ExecutableRecord{}, lookupError
	}

	absolutePath, absoluteError := resolver.fileSystem.Abs(lookedUpPath)
	if absoluteError != nil {
		return ExecutableRecord{}, absoluteError
	}

	resolver.logger.Debug(resolvedFromSearchPathMessageConstant, zap.String(logFieldToolNameConstant, string(name)), zap.String(logFieldPathConstant, absolutePath))
	return ExecutableRecord{ToolName: name, Path: absolutePath, Source: SourceSearchPath}, nil
}

func (resolver *Resolver) resolveExplicitPath(candidatePath string) (ExecutableRecord, error) {
	toolName := ToolName(filepath.Base(candidatePath))
	notFoundError := ToolNotFoundError{ToolName: toolName, ToolsDirectory: resolver.toolsDirectory}

	absolutePath, absoluteError := resolver.fileSystem.Abs(candidatePath)
	if absoluteError != nil {
		return ExecutableRecord{}, absoluteError
	}

	fileInfo, statError := resolver.fileSystem.Stat(absolutePath)
	if statError != nil {
		return ExecutableRecord{}, notFoundError
	}
	if !fileInfo.Mode().IsRegular() || fileInfo.Mode().Perm()&executableSearchMaskConstant == 0 {
		notFoundError.Cause = errors.New(explicitPathNotExecutableMessageConstant)
		return ExecutableRecord{}, notFoundError
	}

	return ExecutableRecord{ToolName: toolName, Path: absolutePath, Source: SourceExplicitPath}, nil
}

func validToolName(name ToolName) bool {
	trimmedName := strings.TrimSpace(string(name))
	if len(trimmedName) == 0 || trimmedName != string(name) {
		return false
	}
	if trimmedName == "." || trimmedName == ".." {
		return false
	}
	return !strings.ContainsRune(trimmedName, filepath.Separator) && !strings.ContainsRune(trimmedName, '/')
}
