package table

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Schema returns the Arrow schema of the frame: utf8 label columns and
// nullable float64 numeric columns.
func (f *Frame) Schema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(f.header))
	for _, name := range f.header {
		if _, ok := f.text[name]; ok {
			fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String})
			continue
		}
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes the frame as a single-batch Arrow IPC file. NaN becomes null.
func WriteArrow(w io.Writer, f *Frame) error {
	mem := memory.NewGoAllocator()
	schema := f.Schema()

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, name := range f.header {
		switch fb := b.Field(i).(type) {
		case *array.StringBuilder:
			fb.AppendValues(f.text[name], nil)
		case *array.Float64Builder:
			for _, v := range f.nums[name] {
				if math.IsNaN(v) {
					fb.AppendNull()
					continue
				}
				fb.Append(v)
			}
		default:
			return fmt.Errorf("unexpected builder %T for column %s", fb, name)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("error creating arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("error writing arrow record: %w", err)
	}
	return fw.Close()
}

// SaveArrow writes the frame to path as an Arrow IPC file.
func SaveArrow(path string, f *Frame) (retErr error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()
	return WriteArrow(out, f)
}
