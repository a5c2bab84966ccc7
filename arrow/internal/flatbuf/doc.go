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
// Package flatbuf holds the flatbuffers tables of the IPC metadata: the
// Message framing every schema and batch, and the Footer closing a file.
//
// Vtable slots, in order:
//
//	Type    { name, isSigned, bitWidth, unit, timezone, precision }
//	Field   { name, nullable, type, children }
//	Message { version, headerType, field, nodes, buffers, codec, bodyLength, checksum }
//	Footer  { version, field, blocks }
//
// FieldNode, Buffer and Block are structs stored inline in vectors.
package flatbuf
