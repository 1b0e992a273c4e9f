/*
   ps1mcfs - PlayStation memory card filesystem
   Copyright (c) 2023, the ps1mcfs authors

   This file is part of ps1mcfs.

   ps1mcfs is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   ps1mcfs is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with ps1mcfs. If not, see <http://www.gnu.org/licenses/>.
*/

/*
	Package vfs projects a decoded memory card into a read-only virtual
	file tree. The tree is built exactly once; after Build returns it is
	immutable, so every query operation is safe for any number of
	concurrent callers without locking.

	Each save becomes a directory holding title.txt, one icon file per
	animation frame, and data.bin with the full payload. Corrupted saves
	additionally hold a zero-length marker file named "corrupted".
*/
package vfs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/memcard"
)

//
var (
	ErrNotFound = errors.New("no such path")
	ErrReadOnly = errors.New("filesystem is read-only")
	ErrNotFile  = errors.New("not a regular file")
)

// names of the files inside a save directory
const (
	TitleFileName  = "title.txt"
	DataFileName   = "data.bin"
	MarkerFileName = "corrupted"
)

// Build constructs the projected tree for a decoded card. stamp is the
// fixed timestamp every node reports, typically the modification time
// of the image file.
func Build(card *memcard.Card, stamp time.Time) *FS {

	f := &FS{stamp: stamp}
	f.root = &Node{kind: KindRoot, ino: f.nextIno()}
	f.root.index = make(map[string]*Node)

	taken := make(map[string]bool)

	for _, s := range card.Saves() {
		dir := f.buildSaveDir(s, taken)
		f.root.children = append(f.root.children, dir)
		f.root.index[dir.name] = dir
	}

	log.WithField("saves", len(f.root.children)).Debug("projection built")
	return f
}

// FS is the read-only projection. It has no mutable state once Build
// has returned it.
type FS struct {
	root  *Node
	stamp time.Time
	ino   uint64
}

//
func (f *FS) nextIno() uint64 {
	f.ino++
	return f.ino
}

//
func (f *FS) buildSaveDir(s *memcard.Save, taken map[string]bool) *Node {

	dir := &Node{
		kind:  KindSaveDir,
		name:  saveDirName(s, taken),
		ino:   f.nextIno(),
		save:  s,
		index: make(map[string]*Node),
	}

	add := func(n *Node) {
		dir.children = append(dir.children, n)
		dir.index[n.name] = n
	}

	add(&Node{
		kind: KindTitleFile,
		name: TitleFileName,
		ino:  f.nextIno(),
		save: s,
		data: []byte(s.Title + "\n"),
	})

	for ix := 0; ix < s.Icon.FrameCount(); ix++ {
		add(&Node{
			kind:  KindIconFile,
			name:  fmt.Sprintf("icon%d.raw", ix),
			ino:   f.nextIno(),
			save:  s,
			frame: ix,
			data:  s.Icon.Raw(ix),
		})
	}

	add(&Node{
		kind: KindDataFile,
		name: DataFileName,
		ino:  f.nextIno(),
		save: s,
		data: s.Payload(),
	})

	if s.Corrupted {
		add(&Node{
			kind: KindMarkerFile,
			name: MarkerFileName,
			ino:  f.nextIno(),
			save: s,
		})
	}

	return dir
}

// saveDirName derives a path-safe directory name from product code and
// identifier. Collisions get an incrementing numeric suffix; saves are
// processed in ascending block order, so the earlier save keeps the
// plain name.
func saveDirName(s *memcard.Save, taken map[string]bool) string {

	name := sanitizeName(s.Product + s.Identifier)
	if name == "" {
		name = fmt.Sprintf("slot_%02d", s.Slot())
	}

	ret := name
	for n := 2; taken[ret]; n++ {
		ret = fmt.Sprintf("%s_%d", name, n)
	}
	taken[ret] = true

	return ret
}

//
func sanitizeName(in string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, in)
}

//
func (f *FS) Root() *Node {
	return f.root
}

//
func (f *FS) Stamp() time.Time {
	return f.stamp
}

// Lookup resolves a slash-separated path to a node. The empty path and
// "/" resolve to the root.
func (f *FS) Lookup(path string) (*Node, error) {

	n := f.root

	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		child, ok := n.index[part]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		n = child
	}

	return n, nil
}

// Child resolves one name below a directory node.
func (f *FS) Child(n *Node, name string) (*Node, error) {
	if child, ok := n.index[name]; ok {
		return child, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Attr returns the attributes of a node. Everything is read-only and
// carries the fixed build timestamp.
type Attr struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	Ino     uint64
}

//
func (f *FS) Attr(n *Node) Attr {

	a := Attr{
		Size:    n.Size(),
		Mode:    0444,
		ModTime: f.stamp,
		Ino:     n.ino,
	}

	if n.IsDir() {
		a.Mode = os.ModeDir | 0555
		a.Size = 0
	}

	return a
}

// List returns the children of a directory node in build order, which
// is ascending original block index for save directories. The returned
// slice must not be modified.
func (f *FS) List(n *Node) []*Node {
	return n.children
}

// Read returns up to length bytes of a file node starting at offset,
// clipped to the file size. An offset at or past the end yields an
// empty result, never an error.
func (f *FS) Read(n *Node, offset int64, length int) ([]byte, error) {

	if n.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, n.name)
	}

	size := n.Size()
	if offset < 0 || offset >= size || length <= 0 {
		return []byte{}, nil
	}

	end := offset + int64(length)
	if end > size {
		end = size
	}

	return n.data[offset:end], nil
}

// All mutating operations fail uniformly; the projection cannot change.

//
func (f *FS) Write(n *Node, offset int64, p []byte) (int, error) {
	return 0, ErrReadOnly
}

//
func (f *FS) Create(path string) error {
	return ErrReadOnly
}

//
func (f *FS) Mkdir(path string) error {
	return ErrReadOnly
}

//
func (f *FS) Rename(oldPath, newPath string) error {
	return ErrReadOnly
}

//
func (f *FS) Remove(path string) error {
	return ErrReadOnly
}

//
func (f *FS) Truncate(path string, size int64) error {
	return ErrReadOnly
}
