// Package checkpoint saves and resumes scrape sessions.
//
// A checkpoint holds the whole session value: the request, every finished
// batch with its artifact path, and the fingerprints of accepted posts, so
// a resumed run neither repeats a batch nor accepts a post twice. It is
// rewritten after every batch.
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: $XDG_DATA_HOME/liscraper/checkpoints/ or ~/.local/share/liscraper/checkpoints/
//   - macOS: ~/Library/Application Support/liscraper/checkpoints/
//   - Windows: %APPDATA%/liscraper/checkpoints/
//
// Files are written atomically and carry a format version.
package checkpoint
