// Package filters selects notable files out of collected metadata.
package filters

import (
	"sort"
	"strings"

	"github.com/aarsakian/CryptoTriage/model"
)

// Hit marks a file whose path looks worth a closer look.
type Hit struct {
	Path   string
	Reason string
}

var SuspiciousKeywords = []string{
	"password", "pass", "seed", "mnemonic", "wallet", "metamask", "private",
	"id_rsa", "pem", "key", "keystore", "auth", "token", "secret",
}

var SuspiciousExtensions = []string{
	".pem", ".key", ".p12", ".pfx", ".kdbx", ".wallet", ".sqlite", ".db", ".dat",
}

// SuspiciousFilter flags files by path keywords and extensions. MaxResults
// caps the hits, zero means no cap.
type SuspiciousFilter struct {
	Keywords   []string
	Extensions []string
	MaxResults int
}

func NewSuspiciousFilter(extraKeywords ...string) SuspiciousFilter {
	keywords := make([]string, 0, len(SuspiciousKeywords)+len(extraKeywords))
	keywords = append(keywords, SuspiciousKeywords...)
	keywords = append(keywords, extraKeywords...)
	return SuspiciousFilter{
		Keywords:   keywords,
		Extensions: append([]string{}, SuspiciousExtensions...),
		MaxResults: 50,
	}
}

// Execute reports at most one hit per path, first match per category. A path
// matching both an extension and a keyword keeps the extension reason.
func (filter SuspiciousFilter) Execute(files []model.FileMetadata) []Hit {
	var hits []Hit
	for _, file := range files {
		lowered := strings.ToLower(file.Path)
		for _, extension := range filter.Extensions {
			if strings.HasSuffix(lowered, extension) {
				hits = append(hits, Hit{Path: file.Path, Reason: "extension:" + extension})
				break
			}
		}
		for _, keyword := range filter.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				hits = append(hits, Hit{Path: file.Path, Reason: "keyword:" + keyword})
				break
			}
		}
		if filter.MaxResults > 0 && len(hits) >= filter.MaxResults {
			break
		}
	}

	seen := make(map[string]bool, len(hits))
	unique := make([]Hit, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.Path] {
			continue
		}
		seen[hit.Path] = true
		unique = append(unique, hit)
	}
	if filter.MaxResults > 0 && len(unique) > filter.MaxResults {
		unique = unique[:filter.MaxResults]
	}
	return unique
}

// TopBySize returns the n largest files, ties keep scan order.
func TopBySize(files []model.FileMetadata, n int) []model.FileMetadata {
	sorted := append([]model.FileMetadata{}, files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size > sorted[j].Size
	})
	return clip(sorted, n)
}

// TopByModified returns the n most recently modified files, files without a
// modification time sort last.
func TopByModified(files []model.FileMetadata, n int) []model.FileMetadata {
	sorted := append([]model.FileMetadata{}, files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModifiedAt.After(sorted[j].ModifiedAt)
	})
	return clip(sorted, n)
}

func clip(files []model.FileMetadata, n int) []model.FileMetadata {
	if n < 0 {
		n = 0
	}
	if n < len(files) {
		files = files[:n]
	}
	return files
}
