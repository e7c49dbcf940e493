// Package storage reads and writes post artifacts.
//
// An artifact is a plain-text file: a header naming the profile, the
// extraction time and the post count, followed by one numbered record per
// post. Records are numbered by position when encoded, so merging artifacts
// never has to renumber anything in memory.
//
// The Manager owns the output directory. Writes go through a temporary file
// and a rename. When the full layout cannot be written, the Manager retries
// with a reduced ASCII layout before reporting failure.
//
// Usage:
//
//	manager, err := storage.NewManager("output")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path, err := manager.SaveBatch("Jane Doe", posts)
//	if err != nil {
//	    log.Printf("Failed to save batch: %v", err)
//	}
//
//	artifact, err := storage.ParseFile(path)
package storage
