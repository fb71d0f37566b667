package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisResultTotals(t *testing.T) {
	result := AnalysisResult{
		Volumes: []VolumeAnalysis{
			{Metadata: &MetadataResult{TotalFiles: 3, TotalDirectories: 2}},
			{Metadata: nil},
			{Metadata: &MetadataResult{TotalFiles: 4, TotalDirectories: 1}},
		},
	}
	assert.Equal(t, 7, result.TotalFiles())
	assert.Equal(t, 3, result.TotalDirectories())
}

func TestAnalysisResultTotalsEmpty(t *testing.T) {
	var result AnalysisResult
	assert.Equal(t, 0, result.TotalFiles())
	assert.Equal(t, 0, result.TotalDirectories())
}

func TestWalkFilesDepthFirst(t *testing.T) {
	root := &DirectoryNode{
		Path:  "/",
		Files: []FileMetadata{{Path: "/a.txt"}, {Path: "/b.txt"}},
		Subdirectories: []*DirectoryNode{
			{
				Path:  "/sub",
				Files: []FileMetadata{{Path: "/sub/c.txt"}},
				Subdirectories: []*DirectoryNode{
					{Path: "/sub/deep", Files: []FileMetadata{{Path: "/sub/deep/d.txt"}}},
				},
			},
			{Path: "/other", Files: []FileMetadata{{Path: "/other/e.txt"}}},
		},
	}

	var visited []string
	root.WalkFiles(func(file FileMetadata) {
		visited = append(visited, file.Path)
	})
	assert.Equal(t, []string{"/a.txt", "/b.txt", "/sub/c.txt", "/sub/deep/d.txt", "/other/e.txt"}, visited)
}
