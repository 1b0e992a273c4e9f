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

import (
	"errors"
	"testing"
)

func TestValidation(t *testing.T) {

	var v Validation

	if v.WasValidated() {
		t.Error("fresh validation reports validated")
	}
	if v.GetError() != nil {
		t.Error("fresh validation carries an error")
	}

	first := errors.New("first")
	v.SetError(first)
	v.SetError(errors.New("second"))

	if !v.WasValidated() {
		t.Error("validation with error not reported as validated")
	}
	if v.GetError() != first {
		t.Errorf("GetError() = %v, want the first error", v.GetError())
	}

	v.Reset()
	if v.WasValidated() || v.GetError() != nil {
		t.Error("Reset() did not clear the validation")
	}
}
