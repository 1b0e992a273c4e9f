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

package vfs

import (
	"github.com/emusave/ps1mcfs/pkg/memcard"
)

// Kind is the closed set of node types in the projected tree. All
// dispatch in this package matches on it; there are no other node types
// at runtime.
type Kind int

const (
	KindRoot Kind = iota
	KindSaveDir
	KindTitleFile
	KindIconFile
	KindDataFile
	KindMarkerFile
)

//
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindSaveDir:
		return "save"
	case KindTitleFile:
		return "title"
	case KindIconFile:
		return "icon"
	case KindDataFile:
		return "data"
	case KindMarkerFile:
		return "marker"
	}
	return "?"
}

// Node is one entry of the projected tree. Nodes are created during the
// one-time build and never change afterwards; file contents are fixed
// byte slices.
type Node struct {
	kind  Kind
	name  string
	ino   uint64
	save  *memcard.Save
	frame int // animation frame for icon nodes
	data  []byte
	//
	children []*Node
	index    map[string]*Node
}

//
func (n *Node) Kind() Kind {
	return n.kind
}

//
func (n *Node) Name() string {
	return n.name
}

//
func (n *Node) Ino() uint64 {
	return n.ino
}

//
func (n *Node) IsDir() bool {
	return n.kind == KindRoot || n.kind == KindSaveDir
}

//
func (n *Node) Size() int64 {
	return int64(len(n.data))
}

// Save returns the save the node belongs to, nil for the root.
func (n *Node) Save() *memcard.Save {
	return n.save
}

// Frame is the icon animation frame index of an icon node.
func (n *Node) Frame() int {
	return n.frame
}
