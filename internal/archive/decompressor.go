package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/filesystem"
)

const (
	zipSuffixConstant                  = ".zip"
	tarGzipSuffixConstant              = ".tar.gz"
	tgzSuffixConstant                  = ".tgz"
	defaultDestinationConstant         = "."
	directoryPermissionsConstant       = fs.FileMode(0o755)
	decompressStartMessageConstant     = "Start to decompress"
	decompressCompletedMessageConstant = "Decompressed archive"
	skippedEntryMessageConstant        = "Skipping unsupported archive entry"
	logFieldSourceConstant             = "source"
	logFieldDestinationConstant        = "destination"
	logFieldEntryConstant              = "entry"
	logFieldEntryCountConstant         = "entries"
	openArchiveErrorTemplateConstant   = "open archive %s: %w"
	readEntryErrorTemplateConstant     = "read archive entry %s: %w"
	writeEntryErrorTemplateConstant    = "extract archive entry %s: %w"
)

// ArchiveType identifies a supported archive format.
type ArchiveType string

// Supported archive types.
const (
	ArchiveTypeZip     ArchiveType = ArchiveType("zip")
	ArchiveTypeTarGzip ArchiveType = ArchiveType("tar.gz")
)

// DetectArchiveType selects the archive format from the source file suffix.
func DetectArchiveType(sourcePath string) (ArchiveType, error) {
	loweredPath := strings.ToLower(sourcePath)
	switch {
	case strings.HasSuffix(loweredPath, tarGzipSuffixConstant), strings.HasSuffix(loweredPath, tgzSuffixConstant):
		return ArchiveTypeTarGzip, nil
	case strings.HasSuffix(loweredPath, zipSuffixConstant):
		return ArchiveTypeZip, nil
	default:
		return "", UnsupportedArchiveTypeError{SourcePath: sourcePath}
	}
}

// Decompressor extracts .zip and .tar.gz archives.
type Decompressor struct {
	logger     *zap.Logger
	fileSystem filesystem.FileSystem
}

// NewDecompressor constructs a Decompressor working on the operating system file system.
func NewDecompressor(logger *zap.Logger) *Decompressor {
	return NewDecompressorWithFileSystem(logger, filesystem.OSFileSystem{})
}

// NewDecompressorWithFileSystem constructs a Decompressor with an injected file system.
func NewDecompressorWithFileSystem(logger *zap.Logger, fileSystem filesystem.FileSystem) *Decompressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	return &Decompressor{logger: logger, fileSystem: fileSystem}
}

// Decompress extracts every entry of sourcePath into destinationDirectory.
// An empty destination extracts into the current directory.
func (decompressor *Decompressor) Decompress(sourcePath string, destinationDirectory string) error {
	archiveType, detectionError := DetectArchiveType(sourcePath)
	if detectionError != nil {
		return detectionError
	}

	if len(strings.TrimSpace(destinationDirectory)) == 0 {
		destinationDirectory = defaultDestinationConstant
	}

	decompressor.logger.Info(
		decompressStartMessageConstant,
		zap.String(logFieldSourceConstant, sourcePath),
		zap.String(logFieldDestinationConstant, destinationDirectory),
	)

	absoluteDestination, absoluteError := decompressor.fileSystem.Abs(destinationDirectory)
	if absoluteError != nil {
		return absoluteError
	}
	if mkdirError := decompressor.fileSystem.MkdirAll(absoluteDestination, directoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}
	realDestination, realDestinationError := decompressor.fileSystem.EvalSymlinks(absoluteDestination)
	if realDestinationError != nil {
		return realDestinationError
	}

	archiveReader, openError := decompressor.fileSystem.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(openArchiveErrorTemplateConstant, sourcePath, openError)
	}
	defer archiveReader.Close()

	var entryCount int
	var extractionError error
	switch archiveType {
	case ArchiveTypeZip:
		entryCount, extractionError = decompressor.extractZip(archiveReader, realDestination)
	case ArchiveTypeTarGzip:
		entryCount, extractionError = decompressor.extractTarGzip(archiveReader, realDestination)
	}
	if extractionError != nil {
		return extractionError
	}

	decompressor.logger.Info(
		decompressCompletedMessageConstant,
		zap.String(logFieldSourceConstant, sourcePath),
		zap.String(logFieldDestinationConstant, absoluteDestination),
		zap.Int(logFieldEntryCountConstant, entryCount),
	)
	return nil
}

func (decompressor *Decompressor) extractZip(archiveReader io.Reader, destinationDirectory string) (int, error) {
	readerAt, size, bufferError := asReaderAt(archiveReader)
	if bufferError != nil {
		return 0, bufferError
	}

	zipReader, zipError := zip.NewReader(readerAt, size)
	if zipError != nil {
		return 0, zipError
	}

	for _, zipEntry := range zipReader.File {
		targetPath, targetError := decompressor.entryTargetPath(destinationDirectory, zipEntry.Name)
		if targetError != nil {
			return 0, targetError
		}

		entryMode := zipEntry.Mode()
		switch {
		case entryMode.IsDir():
			if mkdirError := decompressor.fileSystem.MkdirAll(targetPath, directoryPermissionsConstant); mkdirError != nil {
				return 0, fmt.Errorf(writeEntryErrorTemplateConstant, zipEntry.Name, mkdirError)
			}
		case entryMode&fs.ModeSymlink != 0:
			linkTarget, linkReadError := readZipEntry(zipEntry)
			if linkReadError != nil {
				return 0, fmt.Errorf(readEntryErrorTemplateConstant, zipEntry.Name, linkReadError)
			}
			if linkError := decompressor.writeSymlink(destinationDirectory, zipEntry.Name, targetPath, string(linkTarget)); linkError != nil {
				return 0, linkError
			}
		case entryMode.IsRegular():
			entryReader, entryOpenError := zipEntry.Open()
			if entryOpenError != nil {
				return 0, fmt.Errorf(readEntryErrorTemplateConstant, zipEntry.Name, entryOpenError)
			}
			writeError := decompressor.writeFile(targetPath, entryReader, entryMode.Perm())
			entryReader.Close()
			if writeError != nil {
				return 0, fmt.Errorf(writeEntryErrorTemplateConstant, zipEntry.Name, writeError)
			}
		default:
			decompressor.logger.Debug(skippedEntryMessageConstant, zap.String(logFieldEntryConstant, zipEntry.Name))
		}
	}

	return len(zipReader.File), nil
}

func (decompressor *Decompressor) extractTarGzip(archiveReader io.Reader, destinationDirectory string) (int, error) {
	gzipReader, gzipError := gzip.NewReader(archiveReader)
	if gzipError != nil {
		return 0, gzipError
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	entryCount := 0
	for {
		tarHeader, headerError := tarReader.Next()
		if errors.Is(headerError, io.EOF) {
			return entryCount, nil
		}
		if headerError != nil {
			return entryCount, headerError
		}
		entryCount++

		targetPath, targetError := decompressor.entryTargetPath(destinationDirectory, tarHeader.Name)
		if targetError != nil {
			return entryCount, targetError
		}

		switch tarHeader.Typeflag {
		case tar.TypeDir:
			if mkdirError := decompressor.fileSystem.MkdirAll(targetPath, directoryPermissionsConstant); mkdirError != nil {
				return entryCount, fmt.Errorf(writeEntryErrorTemplateConstant, tarHeader.Name, mkdirError)
			}
		case tar.TypeReg:
			if writeError := decompressor.writeFile(targetPath, tarReader, tarHeader.FileInfo().Mode().Perm()); writeError != nil {
				return entryCount, fmt.Errorf(writeEntryErrorTemplateConstant, tarHeader.Name, writeError)
			}
		case tar.TypeSymlink:
			if linkError := decompressor.writeSymlink(destinationDirectory, tarHeader.Name, targetPath, tarHeader.Linkname); linkError != nil {
				return entryCount, linkError
			}
		case tar.TypeLink:
			if linkError := decompressor.writeHardLink(destinationDirectory, tarHeader.Name, targetPath, tarHeader.Linkname); linkError != nil {
				return entryCount, linkError
			}
		default:
			decompressor.logger.Debug(skippedEntryMessageConstant, zap.String(logFieldEntryConstant, tarHeader.Name))
		}
	}
}

func (decompressor *Decompressor) writeFile(targetPath string, content io.Reader, permissions fs.FileMode) error {
	if mkdirError := decompressor.fileSystem.MkdirAll(filepath.Dir(targetPath), directoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}

	fileWriter, createError := decompressor.fileSystem.Create(targetPath, permissions)
	if createError != nil {
		return createError
	}

	_, copyError := io.Copy(fileWriter, content)
	closeError := fileWriter.Close()
	if copyError != nil {
		return copyError
	}
	if closeError != nil {
		return closeError
	}

	// Create honours the umask; restore the archived mode explicitly.
	return decompressor.fileSystem.Chmod(targetPath, permissions)
}

func (decompressor *Decompressor) writeSymlink(destinationDirectory string, entryName string, linkPath string, linkTarget string) error {
	// The target is resolved without lexical cleaning so that ".." after an
	// extracted symlink follows the link the way the kernel would.
	unresolvedTarget := filepath.FromSlash(linkTarget)
	if !filepath.IsAbs(unresolvedTarget) {
		unresolvedTarget = filepath.Dir(linkPath) + string(filepath.Separator) + unresolvedTarget
	}
	if confineError := decompressor.confine(destinationDirectory, entryName, unresolvedTarget); confineError != nil {
		return confineError
	}

	if mkdirError := decompressor.fileSystem.MkdirAll(filepath.Dir(linkPath), directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, mkdirError)
	}
	if linkError := decompressor.fileSystem.Symlink(linkTarget, linkPath); linkError != nil {
		return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, linkError)
	}
	return nil
}

// writeHardLink links linkPath to an entry extracted earlier. Link names are
// archive paths relative to the destination.
func (decompressor *Decompressor) writeHardLink(destinationDirectory string, entryName string, linkPath string, linkName string) error {
	existingPath, existingError := decompressor.entryTargetPath(destinationDirectory, linkName)
	if existingError != nil {
		return UnsafeArchiveEntryError{EntryName: entryName}
	}

	if mkdirError := decompressor.fileSystem.MkdirAll(filepath.Dir(linkPath), directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, mkdirError)
	}
	if linkError := decompressor.fileSystem.Link(existingPath, linkPath); linkError != nil {
		return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, linkError)
	}
	return nil
}

// entryTargetPath maps an entry name into destinationDirectory and rejects
// names that leave it, either lexically or through symlinks already on disk.
func (decompressor *Decompressor) entryTargetPath(destinationDirectory string, entryName string) (string, error) {
	targetPath := filepath.Join(destinationDirectory, filepath.FromSlash(entryName))
	if filepath.IsAbs(filepath.FromSlash(entryName)) || !withinDirectory(destinationDirectory, targetPath) {
		return "", UnsafeArchiveEntryError{EntryName: entryName}
	}
	if confineError := decompressor.confine(destinationDirectory, entryName, targetPath); confineError != nil {
		return "", confineError
	}
	return targetPath, nil
}

func (decompressor *Decompressor) confine(destinationDirectory string, entryName string, candidatePath string) error {
	realPath, resolveError := decompressor.resolveExisting(candidatePath)
	if resolveError != nil {
		return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, resolveError)
	}
	if !withinDirectory(destinationDirectory, realPath) {
		return UnsafeArchiveEntryError{EntryName: entryName}
	}
	return nil
}

// resolveExisting follows symlinks through the longest existing prefix of
// candidatePath and appends the missing components as written.
func (decompressor *Decompressor) resolveExisting(candidatePath string) (string, error) {
	resolvedPath, evalError := decompressor.fileSystem.EvalSymlinks(candidatePath)
	if evalError == nil {
		return resolvedPath, nil
	}
	if !errors.Is(evalError, fs.ErrNotExist) {
		return "", evalError
	}

	separatorIndex := strings.LastIndex(candidatePath, string(filepath.Separator))
	if separatorIndex < 0 {
		return filepath.Clean(candidatePath), nil
	}
	parentPath := candidatePath[:separatorIndex]
	if len(parentPath) == 0 {
		parentPath = string(filepath.Separator)
	}

	resolvedParent, parentError := decompressor.resolveExisting(parentPath)
	if parentError != nil {
		return "", parentError
	}
	return filepath.Join(resolvedParent, candidatePath[separatorIndex+1:]), nil
}

func withinDirectory(directory string, candidatePath string) bool {
	relativePath, relativeError := filepath.Rel(directory, candidatePath)
	if relativeError != nil {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}

func readZipEntry(zipEntry *zip.File) ([]byte, error) {
	entryReader, openError := zipEntry.Open()
	if openError != nil {
		return nil, openError
	}
	defer entryReader.Close()
	return io.ReadAll(entryReader)
}

func asReaderAt(archiveReader io.Reader) (io.ReaderAt, int64, error) {
	type sizedReaderAt interface {
		io.ReaderAt
		Stat() (fs.FileInfo, error)
	}
	if sizedReader, supportsRandomAccess := archiveReader.(sizedReaderAt); supportsRandomAccess {
		fileInfo, statError := sizedReader.Stat()
		if statError == nil {
			return sizedReader, fileInfo.Size(), nil
		}
	}

	archiveContent, readError := io.ReadAll(archiveReader)
	if readError != nil {
		return nil, 0, readError
	}
	return bytes.NewReader(archiveContent), int64(len(archiveContent)), nil
}
