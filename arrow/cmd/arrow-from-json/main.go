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

// Command arrow-from-json reads a JSON array of values, infers their Arrow
// type and writes them to stdout as an Arrow stream.
//
// Nested JSON arrays become list arrays:
//
//	$> echo '[[1, 2], null, [], [3]]' | arrow-from-json | arrow-cat
//	field: values: type=list<item: int64, nullable>, nullable
//	array 1...
//	  list[0]: [1 2]
//	  list[1]: (null)
//	  list[2]: []
//	  list[3]: [3]
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/apache/arrow/go/lists/arrow"
	"github.com/apache/arrow/go/lists/arrow/array"
	"github.com/apache/arrow/go/lists/arrow/ipc"
	"github.com/apache/arrow/go/lists/arrow/ipc/compress"
	"github.com/apache/arrow/go/lists/arrow/memory"
	"github.com/docopt/docopt-go"
	"github.com/goccy/go-json"
)

const usage = `Arrow from JSON.
Usage:
  arrow-from-json -h | --help
  arrow-from-json [--compression=CODEC] [--name=NAME] [--batch-size=N] [<file>]
Options:
  -h --help              Show this screen.
  --compression=CODEC    Body compression: uncompressed, snappy, gzip, brotli, lz4 or zstd [default: uncompressed].
  --name=NAME            Name of the output field [default: values].
  --batch-size=N         Maximum number of values per array, 0 writes a single array [default: 0].`

type config struct {
	Compression compress.Compression
	Name        string
	BatchSize   int
}

func main() {
	log.SetPrefix("arrow-from-json: ")
	log.SetFlags(0)

	opts, _ := docopt.ParseDoc(usage)

	var (
		cfg config
		err error
	)
	codec, _ := opts.String("--compression")
	if cfg.Compression, err = compress.ParseCompression(codec); err != nil {
		log.Fatal(err)
	}
	cfg.Name, _ = opts.String("--name")
	if cfg.BatchSize, err = opts.Int("--batch-size"); err != nil || cfg.BatchSize < 0 {
		log.Fatalf("invalid --batch-size: must be a non-negative integer")
	}

	in := io.Reader(os.Stdin)
	if fname, _ := opts.String("<file>"); fname != "" {
		f, err := os.Open(fname)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	if err := process(os.Stdout, in, cfg); err != nil {
		log.Fatal(err)
	}
}

func process(w io.Writer, r io.Reader, cfg config) error {
	values, err := decodeValues(r)
	if err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	arr, err := array.FromValues(mem, values, nil)
	if err != nil {
		return fmt.Errorf("could not build array: %w", err)
	}
	defer arr.Release()

	ww := ipc.NewWriter(w,
		ipc.WithField(arrow.Field{Name: cfg.Name, Type: arr.DataType(), Nullable: true}),
		ipc.WithCompression(cfg.Compression),
	)

	n := int64(arr.Len())
	step := int64(cfg.BatchSize)
	if step == 0 {
		step = n
	}
	for i := int64(0); i < n; i += step {
		j := i + step
		if j > n {
			j = n
		}
		slice := array.NewSlice(arr, i, j)
		err := ww.Write(slice)
		slice.Release()
		if err != nil {
			return fmt.Errorf("could not write ARROW stream: %w", err)
		}
	}

	if err := ww.Close(); err != nil {
		return fmt.Errorf("could not close output ARROW stream: %w", err)
	}
	return nil
}

// decodeValues decodes a JSON array, turning numbers into int64 when they
// are integral and float64 otherwise.
func decodeValues(r io.Reader) ([]interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("could not decode JSON array: %w", err)
	}

	for i, v := range raw {
		nv, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		raw[i] = nv
	}
	return raw, nil
}

func normalize(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", arrow.ErrInvalid, v)
		}
		return f, nil
	case []interface{}:
		for i, e := range v {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			v[i] = ne
		}
		return v, nil
	case map[string]interface{}:
		return nil, fmt.Errorf("%w: JSON objects are not supported", arrow.ErrNotImplemented)
	}
	return v, nil
}
