package workflow

import (
	"fmt"
	"strings"

	"supervisor/internal/transport"
)

// FileEntry is one source file carried in a read_py_files reply.
type FileEntry struct {
	Filename string
	Content  string
}

// filesFromReply extracts the file list from a read_py_files reply. The
// executor reports files either under metadata.stdout or metadata.files as a
// list of {filename, content} objects.
func filesFromReply(reply *transport.Reply) []FileEntry {
	if reply == nil || reply.Metadata == nil {
		return nil
	}
	raw, ok := reply.Metadata["stdout"].([]any)
	if !ok {
		raw, ok = reply.Metadata["files"].([]any)
	}
	if !ok {
		return nil
	}

	var out []FileEntry
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		filename, _ := entry["filename"].(string)
		content, _ := entry["content"].(string)
		if filename == "" {
			continue
		}
		out = append(out, FileEntry{Filename: filename, Content: content})
	}
	return out
}

// mergeFiles joins files into one prompt body, each file behind a
// "### filename" header.
func mergeFiles(files []FileEntry) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("### %s\n%s", f.Filename, f.Content))
	}
	return strings.Join(parts, "\n\n")
}

// reserved metadata keys that are never file contents in an edit reply.
var reservedMetaKeys = map[string]bool{
	"stdout": true, "stderr": true, "tabId": true,
	"dir_path": true, "git_url": true, "cwd": true,
	"venv_path": true, "requirements": true,
}

// editedFiles extracts the {filename → new content} pairs echoed back in an
// edit reply.
func editedFiles(reply *transport.Reply) map[string]string {
	if reply == nil || reply.Metadata == nil {
		return nil
	}
	out := make(map[string]string)
	for key, value := range reply.Metadata {
		if reservedMetaKeys[key] {
			continue
		}
		if content, ok := value.(string); ok {
			out[key] = content
		}
	}
	return out
}
