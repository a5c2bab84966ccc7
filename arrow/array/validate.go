// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package array

import (
	"fmt"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/bitutil"
)

// Validate checks the list layout in O(1): the child, the buffer sizes and
// the first and last offsets. It does not look at the offsets in between.
func (a *baseList[O]) Validate() error { return a.validate(false) }

// ValidateFull performs the checks of Validate and also verifies that the
// offsets never decrease. Null lists are held to the same rule; their
// offsets must be well-formed even though their contents are not observed.
func (a *baseList[O]) ValidateFull() error { return a.validate(true) }

func (a *baseList[O]) validate(full bool) error {
	data := a.array.data
	lt := data.dtype.(arrow.ListLikeType)

	if len(data.childData) != 1 || a.values == nil {
		return fmt.Errorf("%w: %s array must have exactly one child, got %d", arrow.ErrInvalid, lt, len(data.childData))
	}
	if !arrow.TypeEqual(a.values.DataType(), lt.Elem()) {
		return fmt.Errorf("%w: %s array has child of type %s", arrow.ErrInvalid, lt, a.values.DataType())
	}

	end, ok := overflow.Add(data.offset, data.length)
	if !ok || data.offset < 0 || data.length < 0 {
		return fmt.Errorf("%w: %s array offset %d and length %d overflow", arrow.ErrInvalid, lt, data.offset, data.length)
	}

	if bitmap := a.nullBitmapBytes; len(bitmap) > 0 {
		if need := bitutil.BytesForBits(int64(end)); int64(len(bitmap)) < need {
			return fmt.Errorf("%w: %s validity bitmap has %d bytes, need %d", arrow.ErrInvalid, lt, len(bitmap), need)
		}
	}

	if data.length == 0 && len(a.offsets) == 0 {
		return nil
	}
	if len(a.offsets) < end+1 {
		return fmt.Errorf("%w: %s offsets buffer has %d entries, need %d", arrow.ErrInvalid, lt, len(a.offsets), end+1)
	}

	first, last := int64(a.offsets[data.offset]), int64(a.offsets[end])
	switch {
	case first < 0:
		return fmt.Errorf("%w: %s first offset %d is negative", arrow.ErrInvalid, lt, first)
	case last < first:
		return fmt.Errorf("%w: %s last offset %d is before first offset %d", arrow.ErrInvalid, lt, last, first)
	case last > int64(a.values.Len()):
		return fmt.Errorf("%w: %s last offset %d exceeds child length %d", arrow.ErrInvalid, lt, last, a.values.Len())
	}

	if !full {
		return nil
	}
	for i := data.offset; i < end; i++ {
		if a.offsets[i] > a.offsets[i+1] {
			return fmt.Errorf("%w: %s offsets decrease at list %d: %d > %d",
				arrow.ErrInvalid, lt, i-data.offset, a.offsets[i], a.offsets[i+1])
		}
	}
	return nil
}
