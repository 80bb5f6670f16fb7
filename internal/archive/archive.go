// Package archive reads log files stored inside zip, 7z and rar archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// Extensions lists the supported archive suffixes
var Extensions = []string{".zip", ".rar", ".7z"}

// ErrMemberNotFound is wrapped when a member does not exist in an archive
var ErrMemberNotFound = errors.New("file not found in archive")

// Error describes a failed archive operation
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// MemberInfo describes one file stored in an archive
type MemberInfo struct {
	Name    string
	Size    int64
	Created time.Time
}

// Reader is the archive collaborator used by file discovery and reading
type Reader interface {
	SplitPath(path string) (archive, member string, ok bool)
	IsValid(archive string) bool
	ListMembers(archive string) ([]string, error)
	MemberInfo(archive, member string) (MemberInfo, error)
	OpenMember(archive, member string) (io.ReadCloser, error)
}

type format int

const (
	formatZip format = iota
	formatRar
	format7z
)

type index struct {
	format  format
	members map[string]MemberInfo
	names   []string
}

// Support implements Reader; member listings are cached per archive
type Support struct {
	mu      sync.Mutex
	indexes map[string]*index
}

// NewSupport creates an archive reader with an empty cache
func NewSupport() *Support {
	return &Support{indexes: make(map[string]*index)}
}

func memberKey(name string) string {
	return strings.ToLower(strings.Trim(filepath.ToSlash(name), "/"))
}

func archiveKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// SplitPath splits path at the first supported archive extension that is
// followed by a separator or the end of the path. ok is true when the
// archive is cached or exists on disk.
func (s *Support) SplitPath(path string) (string, string, bool) {
	lower := strings.ToLower(path)
	for _, ext := range Extensions {
		from := 0
		for {
			i := strings.Index(lower[from:], ext)
			if i < 0 {
				break
			}
			end := from + i + len(ext)
			if end == len(path) || path[end] == '/' || path[end] == '\\' {
				archive := path[:end]
				member := strings.TrimLeft(path[end:], `/\`)
				return archive, member, s.known(archive)
			}
			from = end
		}
	}
	return "", "", false
}

func (s *Support) known(archive string) bool {
	s.mu.Lock()
	_, ok := s.indexes[archiveKey(archive)]
	s.mu.Unlock()
	if ok {
		return true
	}
	fi, err := os.Stat(archive)
	return err == nil && fi.Mode().IsRegular()
}

// IsValid reports whether archive can be opened and listed
func (s *Support) IsValid(archive string) bool {
	_, err := s.index(archive)
	return err == nil
}

// ListMembers returns the names of all non-directory members
func (s *Support) ListMembers(archive string) ([]string, error) {
	idx, err := s.index(archive)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), idx.names...), nil
}

// MemberInfo returns the uncompressed size and creation time of a member
func (s *Support) MemberInfo(archive, member string) (MemberInfo, error) {
	idx, err := s.index(archive)
	if err != nil {
		return MemberInfo{}, err
	}
	info, ok := idx.members[memberKey(member)]
	if !ok {
		return MemberInfo{}, &Error{Op: "stat", Path: archive, Err: fmt.Errorf("%w: %s", ErrMemberNotFound, member)}
	}
	return info, nil
}

// OpenMember opens a member for sequential reading
func (s *Support) OpenMember(archive, member string) (io.ReadCloser, error) {
	info, err := s.MemberInfo(archive, member)
	if err != nil {
		return nil, err
	}
	idx, _ := s.index(archive)

	var rc io.ReadCloser
	switch idx.format {
	case formatZip:
		rc, err = openZipMember(archive, info.Name)
	case format7z:
		rc, err = open7zMember(archive, info.Name)
	default:
		rc, err = openRarMember(archive, info.Name)
	}
	if err != nil {
		return nil, &Error{Op: "open", Path: archive, Err: err}
	}
	return rc, nil
}

// Forget drops the cached listing of archive
func (s *Support) Forget(archive string) {
	s.mu.Lock()
	delete(s.indexes, archiveKey(archive))
	s.mu.Unlock()
}

func (s *Support) index(archive string) (*index, error) {
	key := archiveKey(archive)

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[key]; ok {
		return idx, nil
	}

	var infos []MemberInfo
	var f format
	var err error
	switch strings.ToLower(filepath.Ext(archive)) {
	case ".zip":
		f = formatZip
		infos, err = listZip(archive)
	case ".7z":
		f = format7z
		infos, err = list7z(archive)
	case ".rar":
		f = formatRar
		infos, err = listRar(archive)
	default:
		err = fmt.Errorf("unsupported archive type")
	}
	if err != nil {
		return nil, &Error{Op: "list", Path: archive, Err: err}
	}

	idx := &index{format: f, members: make(map[string]MemberInfo, len(infos))}
	for _, info := range infos {
		idx.members[memberKey(info.Name)] = info
		idx.names = append(idx.names, info.Name)
	}
	sort.Strings(idx.names)
	s.indexes[key] = idx
	return idx, nil
}

func listZip(archive string) ([]MemberInfo, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var infos []MemberInfo
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		infos = append(infos, MemberInfo{Name: f.Name, Size: int64(f.UncompressedSize64), Created: f.Modified})
	}
	return infos, nil
}

func list7z(archive string) ([]MemberInfo, error) {
	r, err := sevenzip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var infos []MemberInfo
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		infos = append(infos, MemberInfo{Name: f.Name, Size: int64(f.UncompressedSize), Created: f.Modified})
	}
	return infos, nil
}

func listRar(archive string) ([]MemberInfo, error) {
	r, err := rardecode.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var infos []MemberInfo
	for {
		h, err := r.Next()
		if errors.Is(err, io.EOF) {
			return infos, nil
		}
		if err != nil {
			return nil, err
		}
		if h.IsDir {
			continue
		}
		infos = append(infos, MemberInfo{Name: h.Name, Size: h.UnPackedSize, Created: h.ModificationTime})
	}
}

// multiCloser closes the member stream and then its archive
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openZipMember(archive, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			r.Close()
			return nil, err
		}
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, r}}, nil
	}
	r.Close()
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
}

func open7zMember(archive, name string) (io.ReadCloser, error) {
	r, err := sevenzip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			r.Close()
			return nil, err
		}
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, r}}, nil
	}
	r.Close()
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
}

func openRarMember(archive, name string) (io.ReadCloser, error) {
	r, err := rardecode.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for {
		h, err := r.Next()
		if err != nil {
			r.Close()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
			}
			return nil, err
		}
		if h.Name == name {
			return &multiCloser{Reader: r, closers: []io.Closer{r}}, nil
		}
	}
}
