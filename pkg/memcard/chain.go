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

package memcard

import (
	"sort"

	log "github.com/sirupsen/logrus"
)

// chain is the resolved block sequence of one save, in link order
type chain struct {
	blocks    []int
	corrupted bool
	orphan    bool
}

// resolveChains assembles the block chain of every save on the card,
// starting from each first-link entry. Walks are iterative, bounded to
// the maximum possible chain length, and track visited blocks, so cycles
// and invalid references terminate the walk and surface as a corruption
// flag on a truncated chain rather than hiding the save. Middle or last
// entries never reached by any chain are returned as single-block
// orphans, flagged corrupted. The result is ordered by ascending first
// block index.
func resolveChains(dir *[DataBlockCount]DirectoryEntry) []chain {

	var chains []chain
	var claimed [DataBlockCount]bool

	for ix := 0; ix < DataBlockCount; ix++ {
		if dir[ix].State == StateUsedFirst {
			c := walkChain(dir, ix, &claimed)
			for _, b := range c.blocks {
				claimed[b] = true
			}
			chains = append(chains, c)
		}
	}

	for ix := 0; ix < DataBlockCount; ix++ {
		e := &dir[ix]
		if claimed[ix] ||
			(e.State != StateUsedMiddle && e.State != StateUsedLast) {
			continue
		}
		log.WithField("block", ix).Debug("orphaned block")
		claimed[ix] = true
		chains = append(chains, chain{
			blocks:    []int{ix},
			corrupted: true,
			orphan:    true,
		})
	}

	sort.Slice(chains, func(i, j int) bool {
		return chains[i].blocks[0] < chains[j].blocks[0]
	})

	return chains
}

//
func walkChain(
	dir *[DataBlockCount]DirectoryEntry, first int,
	claimed *[DataBlockCount]bool) chain {

	c := chain{}
	var visited [DataBlockCount]bool
	cur := first

	for step := 0; step < DataBlockCount; step++ {

		e := &dir[cur]
		c.blocks = append(c.blocks, cur)
		visited[cur] = true

		if e.Corrupted() {
			c.corrupted = true
		}

		if e.State == StateUsedLast {
			return checkLength(dir, c)
		}

		next := int(e.NextBlock)

		if e.NextBlock == ChainEnd {
			// a first link with no successor is a single block save;
			// a middle link ending the chain means the last block is gone
			if len(c.blocks) > 1 {
				logCorrupt(first, cur, "chain ends without last block")
				c.corrupted = true
			}
			return checkLength(dir, c)
		}

		if next < 0 || next >= DataBlockCount {
			logCorrupt(first, cur, "link out of range")
			c.corrupted = true
			return c
		}

		if visited[next] {
			logCorrupt(first, cur, "link cycle")
			c.corrupted = true
			return c
		}

		if claimed[next] {
			logCorrupt(first, cur, "link into another save")
			c.corrupted = true
			return c
		}

		if t := dir[next].State; t != StateUsedMiddle && t != StateUsedLast {
			logCorrupt(first, cur, "link to unused block")
			c.corrupted = true
			return c
		}

		cur = next
	}

	c.corrupted = true // cannot happen with the visited check in place
	return c
}

// checkLength cross-checks the save length recorded in the first link
// against the resolved chain; the chain wins, a mismatch only flags.
func checkLength(dir *[DataBlockCount]DirectoryEntry, c chain) chain {
	if l := dir[c.blocks[0]].SaveLength; l > 0 && l != len(c.blocks)*BlockSize {
		logCorrupt(c.blocks[0], c.blocks[0], "save length mismatch")
		c.corrupted = true
	}
	return c
}

//
func logCorrupt(first, at int, msg string) {
	log.WithFields(log.Fields{"first": first, "at": at}).Debugf(
		"%v: %s", ErrCorruptChain, msg)
}
