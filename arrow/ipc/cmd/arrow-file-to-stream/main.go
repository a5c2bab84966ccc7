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

// Command arrow-file-to-stream converts an Arrow file into an Arrow stream
// written to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/apache/arrow/go/lists/arrow/ipc"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
)

func main() {
	log.SetPrefix("arrow-file-to-stream: ")
	log.SetFlags(0)

	codec := flag.String("compression", "uncompressed", "body compression codec of the output stream")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing path to input ARROW file")
	}

	c, err := compress.ParseCompression(*codec)
	if err != nil {
		log.Fatal(err)
	}

	err = processFile(os.Stdout, flag.Arg(0), c)
	if err != nil {
		log.Fatal(err)
	}
}

func processFile(w io.Writer, fname string, codec compress.Compression) error {
	r, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer r.Close()

	mem := memory.NewGoAllocator()

	rr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	defer rr.Close()

	ww := ipc.NewWriter(w, ipc.WithField(rr.Field()), ipc.WithCompression(codec))
	defer ww.Close()

	n, err := ipc.Copy(ww, rr)
	if err != nil {
		return fmt.Errorf("could not copy ARROW stream: %w", err)
	}
	if got, want := n, int64(rr.NumArrays()); got != want {
		return fmt.Errorf("invalid number of arrays written (got=%d, want=%d)", got, want)
	}

	err = ww.Close()
	if err != nil {
		return fmt.Errorf("could not close output ARROW stream: %w", err)
	}

	return nil
}
