package archive

import "fmt"

const (
	unsupportedArchiveTypeTemplateConstant = "unsupported archive type for %s: only .zip and .tar.gz are supported"
	unsafeArchiveEntryTemplateConstant     = "archive entry %s escapes the destination directory"
)

// UnsupportedArchiveTypeError reports a source file whose suffix is neither .zip nor .tar.gz.
type UnsupportedArchiveTypeError struct {
	SourcePath string
}

// Error describes the rejected archive.
func (unsupportedError UnsupportedArchiveTypeError) Error() string {
	return fmt.Sprintf(unsupportedArchiveTypeTemplateConstant, unsupportedError.SourcePath)
}

// UnsafeArchiveEntryError reports an entry that would be written outside the destination directory.
type UnsafeArchiveEntryError struct {
	EntryName string
}

// Error describes the rejected entry.
func (unsafeError UnsafeArchiveEntryError) Error() string {
	return fmt.Sprintf(unsafeArchiveEntryTemplateConstant, unsafeError.EntryName)
}
