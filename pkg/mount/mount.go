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

// Package mount drives the projected card tree through FUSE. It is a
// thin adapter: all structure and content comes from the vfs package,
// this layer only translates the lookup/attr/list/read contract into
// kernel requests and rejects every mutating operation with EROFS.
package mount

import (
	"context"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/vfs"
)

// Mount mounts the projection at the given mount point and returns the
// serving FUSE server. The caller is responsible for calling Wait and
// Unmount.
func Mount(mountpoint string, view *vfs.FS, debug bool) (*fuse.Server, error) {

	root := &node{view: view, node: view.Root()}

	timeout := time.Hour // the tree never changes while mounted

	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName: "ps1mcfs",
			Name:   "ps1mcfs",
			Debug:  debug,
		},
		AttrTimeout:  &timeout,
		EntryTimeout: &timeout,
	})
	if err != nil {
		return nil, err
	}

	log.WithField("mountpoint", mountpoint).Info("card mounted")
	return server, nil
}

//
type node struct {
	fs.Inode
	view *vfs.FS
	node *vfs.Node
}

// interface checks
var _ = (fs.NodeLookuper)((*node)(nil))
var _ = (fs.NodeGetattrer)((*node)(nil))
var _ = (fs.NodeReaddirer)((*node)(nil))
var _ = (fs.NodeOpener)((*node)(nil))
var _ = (fs.NodeReader)((*node)(nil))
var _ = (fs.NodeSetattrer)((*node)(nil))
var _ = (fs.NodeCreater)((*node)(nil))
var _ = (fs.NodeMkdirer)((*node)(nil))
var _ = (fs.NodeUnlinker)((*node)(nil))
var _ = (fs.NodeRmdirer)((*node)(nil))
var _ = (fs.NodeRenamer)((*node)(nil))

//
func (n *node) mode() uint32 {
	if n.node.IsDir() {
		return syscall.S_IFDIR | 0555
	}
	return syscall.S_IFREG | 0444
}

//
func (n *node) fillAttr(out *fuse.Attr) {
	a := n.view.Attr(n.node)
	out.Mode = n.mode()
	out.Size = uint64(a.Size)
	out.Ino = a.Ino
	mtime := uint64(a.ModTime.Unix())
	out.Mtime = mtime
	out.Atime = mtime
	out.Ctime = mtime
}

//
func (n *node) Lookup(
	ctx context.Context, name string, out *fuse.EntryOut) (
	*fs.Inode, syscall.Errno) {

	child, err := n.view.Child(n.node, name)
	if err != nil {
		return nil, syscall.ENOENT
	}

	ops := &node{view: n.view, node: child}
	inode := n.NewInode(ctx, ops, fs.StableAttr{
		Mode: ops.mode(),
		Ino:  child.Ino(),
	})

	ops.fillAttr(&out.Attr)
	return inode, 0
}

//
func (n *node) Getattr(
	ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.fillAttr(&out.Attr)
	return 0
}

//
func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {

	children := n.view.List(n.node)
	entries := make([]fuse.DirEntry, 0, len(children))

	for _, c := range children {
		mode := uint32(syscall.S_IFREG)
		if c.IsDir() {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{
			Mode: mode,
			Name: c.Name(),
			Ino:  c.Ino(),
		})
	}

	return fs.NewListDirStream(entries), 0
}

//
func (n *node) Open(
	ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {

	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

//
func (n *node) Read(
	ctx context.Context, f fs.FileHandle, dest []byte, off int64) (
	fuse.ReadResult, syscall.Errno) {

	data, err := n.view.Read(n.node, off, len(dest))
	if err != nil {
		log.WithField("node", n.node.Name()).Errorf("read failed: %v", err)
		return nil, syscall.EIO
	}

	return fuse.ReadResultData(data), 0
}

//
func (n *node) Setattr(
	ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn,
	out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

//
func (n *node) Create(
	ctx context.Context, name string, flags uint32, mode uint32,
	out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}

//
func (n *node) Mkdir(
	ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (
	*fs.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

//
func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

//
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

//
func (n *node) Rename(
	ctx context.Context, name string, newParent fs.InodeEmbedder,
	newName string, flags uint32) syscall.Errno {
	return syscall.EROFS
}
