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

package arrow

import "errors"

var (
	ErrInvalid        = errors.New("invalid")
	ErrNotImplemented = errors.New("not implemented")
	ErrType           = errors.New("type error")
	ErrKey            = errors.New("key error")
	ErrIndex          = errors.New("index out of range")
	ErrNotFound       = errors.New("not found")
	ErrIO             = errors.New("i/o error")
	ErrOutOfMemory    = errors.New("out of memory")
)

// ErrorCode is a stable numeric classification of the errors returned by this
// module, for callers that cannot match on error values directly (for example
// language bindings exposing an error domain).
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorOutOfMemory
	ErrorKey
	ErrorType
	ErrorInvalid
	ErrorIO
	ErrorIndex
	ErrorNotImplemented
	ErrorNotFound
)

var errorCodeNames = [...]string{
	ErrorUnknown:        "Unknown",
	ErrorOutOfMemory:    "OutOfMemory",
	ErrorKey:            "Key",
	ErrorType:           "Type",
	ErrorInvalid:        "Invalid",
	ErrorIO:             "IO",
	ErrorIndex:          "Index",
	ErrorNotImplemented: "NotImplemented",
	ErrorNotFound:       "NotFound",
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(errorCodeNames) {
		return errorCodeNames[ErrorUnknown]
	}
	return errorCodeNames[c]
}

var codeTable = []struct {
	err  error
	code ErrorCode
}{
	{ErrOutOfMemory, ErrorOutOfMemory},
	{ErrKey, ErrorKey},
	{ErrType, ErrorType},
	{ErrIndex, ErrorIndex},
	{ErrInvalid, ErrorInvalid},
	{ErrIO, ErrorIO},
	{ErrNotImplemented, ErrorNotImplemented},
	{ErrNotFound, ErrorNotFound},
}

// ErrorCodeOf classifies err by the first sentinel it wraps. A nil error
// and errors that wrap no sentinel map to ErrorUnknown.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return ErrorUnknown
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ErrorUnknown
}
