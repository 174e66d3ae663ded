package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"meatdash/internal/engine"
)

// MIMEArrowStream is the media type of an Arrow IPC stream.
const MIMEArrowStream = "application/vnd.apache.arrow.stream"

// RelationSchema is the Arrow schema of an exported relation.
var RelationSchema = arrow.NewSchema([]arrow.Field{
	{Name: engine.ColCountry, Type: arrow.BinaryTypes.String},
	{Name: engine.ColRegion, Type: arrow.BinaryTypes.String},
	{Name: engine.ColSubRegion, Type: arrow.BinaryTypes.String},
	{Name: engine.ColMeatType, Type: arrow.BinaryTypes.String},
	{Name: engine.ColYear, Type: arrow.PrimitiveTypes.Int32},
	{Name: engine.ColConsumption, Type: arrow.PrimitiveTypes.Float64},
	{Name: engine.ColPopulation, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteRelation writes rel as an Arrow IPC stream holding one record batch.
// An empty relation still produces a valid stream with the schema.
func WriteRelation(w io.Writer, rel engine.Relation) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, RelationSchema)
	defer b.Release()

	country := b.Field(0).(*array.StringBuilder)
	region := b.Field(1).(*array.StringBuilder)
	subRegion := b.Field(2).(*array.StringBuilder)
	meat := b.Field(3).(*array.StringBuilder)
	year := b.Field(4).(*array.Int32Builder)
	consumption := b.Field(5).(*array.Float64Builder)
	population := b.Field(6).(*array.Float64Builder)

	n := rel.Len()
	for _, fb := range b.Fields() {
		fb.Reserve(n)
	}
	for i := 0; i < n; i++ {
		country.Append(rel.Country(i))
		region.Append(rel.Region(i))
		subRegion.Append(rel.SubRegion(i))
		meat.Append(rel.MeatType(i))
		year.Append(int32(rel.Year(i)))
		consumption.Append(rel.Consumption(i))
		population.Append(rel.Population(i))
	}

	rec := b.NewRecord()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(RelationSchema), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("export: write record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("export: close stream: %w", err)
	}
	return nil
}
