package httputil

import (
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	"..", "_",
	"/", "_",
	"\\", "_",
	"\x00", "",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\r", "",
	"\n", "",
)

// SanitizeFilename removes path components and characters that are unsafe in
// a filename or a Content-Disposition header.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = filenameReplacer.Replace(name)

	if name == "" || name == "." || name == ".." {
		return "video"
	}

	return name
}
