// Package scanner discovers candidate files for ingestion.
//
// Scanner walks a directory tree in lexical order and streams the absolute
// paths of files with a supported extension. Hidden files and directories,
// and anything below a "_processed" directory, are excluded.
//
// Watcher follows the same rules with fsnotify and reports batches of
// created or modified files after a quiet period.
package scanner
