// Package archive unpacks vendored tool bundles distributed as .zip or .tar.gz files.
package archive
