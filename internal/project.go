package internal

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectInfo describes one project directory under a provider root
type ProjectInfo struct {
	Hash       string // directory name under the root
	Dir        string // absolute project directory
	SessionDir string // directory holding the *.json session files
	Name       string // best-effort name decoded from Hash, may be empty
}

// DetectProjects lists the project directories under root. For each
// project the first existing subdirectory among subdirs is used as the
// session directory; projects with none of them are skipped. A missing
// root yields no projects.
func DetectProjects(root string, subdirs ...string) ([]ProjectInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Path: root, Op: "scan", Err: err}
	}

	var projects []ProjectInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		for _, sub := range subdirs {
			sessionDir := filepath.Join(dir, sub)
			if info, err := os.Stat(sessionDir); err == nil && info.IsDir() {
				projects = append(projects, ProjectInfo{
					Hash:       entry.Name(),
					Dir:        dir,
					SessionDir: sessionDir,
					Name:       ProjectNameFromHash(entry.Name()),
				})
				break
			}
		}
	}

	return projects, nil
}

// SessionFiles returns the *.json files directly inside the session directory
func (p ProjectInfo) SessionFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.SessionDir, "*.json"))
	if err != nil {
		return nil, &StorageError{Path: p.SessionDir, Op: "scan", Err: err}
	}
	return matches, nil
}

// ProjectNameFromHash decodes a project directory name. Directories
// named after an absolute path with separators replaced by dashes
// ("-home-me-app") yield the last segment; opaque hashes yield "".
// Dashes inside the original directory names cannot be told apart, so
// the result is best-effort.
func ProjectNameFromHash(hash string) string {
	if !strings.HasPrefix(hash, "-") {
		return ""
	}
	segments := strings.Split(strings.Trim(hash, "-"), "-")
	return segments[len(segments)-1]
}
