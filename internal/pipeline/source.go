package pipeline

import (
	"os"

	"ibovrank/internal"
)

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SelectSource picks the saved export when it exists and the B3 API otherwise.
func SelectSource(inputPath string, exists func(string) bool) internal.Source {
	if exists == nil {
		exists = FileExists
	}
	if exists(inputPath) {
		return internal.SourceFile
	}
	return internal.SourceAPI
}
