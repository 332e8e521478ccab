// Package workspace models the set of root folders a client session
// operates over and tracks which text documents within them are
// currently open on the server.
package workspace

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Folder is one root folder of a workspace, carrying both the
// filesystem path a client reads from and the `file://` URI the wire
// protocol uses to name it.
type Folder struct {
	Name string
	URI  string
	Path string
}

// NewFolder builds a Folder from a filesystem path, deriving its URI and
// defaulting Name to the path's base element.
func NewFolder(name, path string) (Folder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Folder{}, fmt.Errorf("workspace: resolving folder path %q: %w", path, err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	return Folder{Name: name, Path: abs, URI: PathToFileURI(abs)}, nil
}

// PathToFileURI derives the `file://` URI for an absolute filesystem path.
// Shared by Folder construction and FileBuffer so both name the same
// document the same way.
func PathToFileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// Workspace is the ordered set of root folders a session was opened
// against. Order matters: it is sent verbatim as the `workspaceFolders`
// initialize parameter and as the server-polled result of
// workspace/workspaceFolders.
type Workspace struct {
	folders []Folder
}

// New builds a Workspace from one or more folders. Passing zero folders is
// allowed (an LSP session with no workspace root, common for single-file
// editing); SingleRoot then reports ok=false.
func New(folders ...Folder) *Workspace {
	return &Workspace{folders: append([]Folder(nil), folders...)}
}

// Folders returns every root folder, in the order the workspace was
// constructed with.
func (w *Workspace) Folders() []Folder {
	return append([]Folder(nil), w.folders...)
}

// SingleRoot returns the sole folder and ok=true when the workspace has
// exactly one root, matching the common single-project-root convention;
// ok is false for zero or more than one folder.
func (w *Workspace) SingleRoot() (Folder, bool) {
	if len(w.folders) != 1 {
		return Folder{}, false
	}
	return w.folders[0], true
}

// Add appends a folder. It sends nothing to the server: no
// workspace/didChangeWorkspaceFolders notification is issued.
func (w *Workspace) Add(f Folder) {
	w.folders = append(w.folders, f)
}

// Remove drops the folder with the given URI, if present, reporting
// whether it was found.
func (w *Workspace) Remove(uri string) bool {
	for i, f := range w.folders {
		if f.URI == uri {
			w.folders = append(w.folders[:i], w.folders[i+1:]...)
			return true
		}
	}
	return false
}
