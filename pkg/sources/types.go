// Package sources fetches raw campaign finance data from upstream endpoints.
package sources

// RemoteFile is one downloadable source file plus everything needed to parse
// it after landing.
type RemoteFile struct {
	URL        string
	Filename   string
	RecordType string
	// Checksum is an optional hex sha256 of the file body. When set, a
	// mismatched download is an error.
	Checksum  string
	Delimiter rune
	Headers   []string
	HasHeader bool
}
