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

/*
Package arrow provides the type system and interfaces for Arrow list arrays.

Apache Arrow is a cross-language development platform for in-memory data. It specifies a
standardized language-independent columnar memory format for flat and hierarchical data.

# Basics

The fundamental data structure is an Array, which holds a sequence of values of the same
type. An array consists of memory holding the data and an additional validity bitmap that
indicates if the corresponding entry in the array is valid (not null). If the array has no
null entries, it is possible to omit this bitmap.

# List arrays

A list array stores a sequence of variable-length lists. The values of every list live
back to back in a single child array, and an offsets buffer of length N+1 delimits them:
list i spans child positions [offsets[i], offsets[i+1]). Reading a list returns a slice of
the child that shares its memory, so no element is ever copied.

# Requirements

Memory is reference counted. Every array, buffer and builder must be released once the
caller is done with it; arrays returned by accessors such as List.Value are new references
owned by the caller.
*/
package arrow
