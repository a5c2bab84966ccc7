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
	"io"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/goccy/go-json"
)

// FromJSON creates an array of type dt from the JSON array read from r.
// Lists are nested JSON arrays and null becomes a null slot. Binary values
// are base64 strings and timestamps are strings or integers in the unit of dt.
//
// The number of bytes consumed from r is returned along with the array,
// which the caller must Release.
func FromJSON(mem memory.Allocator, dt arrow.DataType, r io.Reader) (arrow.Array, int64, error) {
	bldr := NewBuilder(mem, dt)
	defer bldr.Release()

	dec := json.NewDecoder(r)
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, dec.InputOffset(), err
	}

	if delim, ok := t.(json.Delim); !ok || delim != '[' {
		return nil, dec.InputOffset(), fmt.Errorf("%w: json array expected, found %v", arrow.ErrInvalid, t)
	}

	if err = bldr.unmarshal(dec); err != nil {
		return nil, dec.InputOffset(), err
	}

	// consume ']'
	if _, err = dec.Token(); err != nil {
		return nil, dec.InputOffset(), err
	}

	return bldr.NewArray(), dec.InputOffset(), nil
}
