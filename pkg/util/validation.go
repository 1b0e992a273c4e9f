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

package util

// Validation captures the outcome of a one-time validation, keeping the
// first error that was recorded.
type Validation struct {
	validated bool
	err       error
}

//
func (v *Validation) WasValidated() bool {
	return v.validated
}

// SetError records the result of a validation. Only the first error
// sticks, later calls cannot clear or overwrite it.
func (v *Validation) SetError(err error) {
	if v.err == nil {
		v.err = err
	}
	v.validated = true
}

//
func (v *Validation) GetError() error {
	return v.err
}

//
func (v *Validation) Reset() {
	v.validated = false
	v.err = nil
}
