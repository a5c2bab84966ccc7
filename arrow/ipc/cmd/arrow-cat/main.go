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

// Command arrow-cat displays the content of an Arrow stream or file.
//
// Examples:
//
//	$> arrow-cat ./testdata/lists.arrow
//	field: values: type=list<item: utf8, nullable>, nullable
//	array 1/2...
//	  list[0]: ["a" "b"]
//	  list[1]: []
//	  list[2]: (null)
//	array 2/2...
//	  list[0]: ["c"]
//
//	$> arrow-from-json values.json | arrow-cat
//	field: values: type=list<item: int64, nullable>, nullable
//	array 1...
//	  list[0]: [1 2]
//	  list[1]: (null)
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/ipc"
	"github.com/apache/arrow/go/lists/arrow/memory"
)

func main() {
	log.SetPrefix("arrow-cat: ")
	log.SetFlags(0)

	flag.Parse()

	var err error
	switch flag.NArg() {
	case 0:
		err = processStream(os.Stdout, os.Stdin)
	default:
		err = processFiles(os.Stdout, flag.Args())
	}
	if err != nil {
		log.Fatal(err)
	}
}

func processStream(w io.Writer, rin io.Reader) error {
	mem := memory.NewGoAllocator()

	r, err := ipc.NewReader(rin, ipc.WithAllocator(mem))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer r.Release()

	fmt.Fprintf(w, "field: %v\n", r.Field())
	n := 0
	for r.Next() {
		n++
		fmt.Fprintf(w, "array %d...\n", n)
		if err := printArray(w, r.Array()); err != nil {
			return err
		}
	}
	return r.Err()
}

func processFiles(w io.Writer, names []string) error {
	for _, name := range names {
		err := processFile(w, name)
		if err != nil {
			return err
		}
	}
	return nil
}

func processFile(w io.Writer, fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := make([]byte, len(ipc.Magic))
	_, err = io.ReadFull(f, hdr)
	if err != nil {
		return fmt.Errorf("could not read file header: %w", err)
	}
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}

	if !bytes.Equal(hdr, ipc.Magic) {
		// try as a stream.
		return processStream(w, f)
	}

	mem := memory.NewGoAllocator()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(w, "field: %v\n", r.Field())
	for i := 0; i < r.NumArrays(); i++ {
		fmt.Fprintf(w, "array %d/%d...\n", i+1, r.NumArrays())
		arr, err := r.Array(i)
		if err != nil {
			return err
		}
		err = printArray(w, arr)
		arr.Release()
		if err != nil {
			return err
		}
	}

	return nil
}

// printArray prints list arrays one list per line and any other array on a
// single line.
func printArray(w io.Writer, arr arrow.Array) error {
	lst, err := array.AsListLike(arr)
	if err != nil {
		fmt.Fprintf(w, "  %v\n", arr)
		return nil
	}

	for i := 0; i < lst.Len(); i++ {
		if lst.IsNull(i) {
			fmt.Fprintf(w, "  list[%d]: (null)\n", i)
			continue
		}
		v, err := lst.Value(int64(i))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  list[%d]: %v\n", i, v)
		v.Release()
	}
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Command arrow-cat displays the content of an Arrow stream or file.

Usage: arrow-cat [OPTIONS] [FILE1 [FILE2 [...]]]

Examples:

 $> arrow-cat ./testdata/lists.arrow
 field: values: type=list<item: utf8, nullable>, nullable
 array 1/2...
   list[0]: ["a" "b"]
   list[1]: []
   list[2]: (null)
 array 2/2...
   list[0]: ["c"]

 $> arrow-from-json values.json | arrow-cat
 field: values: type=list<item: int64, nullable>, nullable
 array 1...
   list[0]: [1 2]
   list[1]: (null)
`)
		os.Exit(0)
	}
}
