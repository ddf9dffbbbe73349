package catalog

import (
	"encoding/binary"
	"math"
	"testing"
)

func buildTestSchema() *Schema {
	fields := []Field{
		{Name: "designation", Symbol: "id", Offset: 0, Size: 8, CType: CTypeString},
		{Name: "ra", Symbol: "ra", Offset: 8, Size: 8, CType: CTypeDouble},
		{Name: "dec", Symbol: "dec", Offset: 16, Size: 8, CType: CTypeDouble},
		{Name: "mag", Symbol: "mag", Offset: 24, Size: 8, CType: CTypeDouble},
	}
	return NewSchema(fields, "designation", 8, 16, 24, 32)
}

func TestSchemaFieldLookup(t *testing.T) {
	s := buildTestSchema()
	f, err := s.Field("ra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Offset != 8 {
		t.Errorf("ra offset = %d, want 8", f.Offset)
	}
	if !s.Has("mag") {
		t.Errorf("Has(mag) = false, want true")
	}
	if s.Has("bogus") {
		t.Errorf("Has(bogus) = true, want false")
	}
}

func TestSchemaUnknownField(t *testing.T) {
	s := buildTestSchema()
	_, err := s.Field("nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if _, ok := err.(*UnknownFieldError); !ok {
		t.Errorf("error type = %T, want *UnknownFieldError", err)
	}
}

func TestCTypeComparable(t *testing.T) {
	if CTypeAnglePiece.Comparable() {
		t.Error("CTypeAnglePiece should not be comparable")
	}
	if CTypeMPCDate.Comparable() {
		t.Error("CTypeMPCDate should not be comparable")
	}
	if !CTypeDouble.Comparable() {
		t.Error("CTypeDouble should be comparable")
	}
}

func makeRecord(id string, ra, dec float64, mag float32) ObjectRecord {
	buf := make([]byte, 32)
	copy(buf[0:8], id)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(ra))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(dec))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(float64(mag)))
	return ObjectRecord(buf)
}

func TestObjectRecordAccessors(t *testing.T) {
	s := buildTestSchema()
	rec := makeRecord("HD1234", 1.5, -0.2, 6.3)

	if got := rec.RA(s); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("RA = %v, want 1.5", got)
	}
	if got := rec.Dec(s); math.Abs(got-(-0.2)) > 1e-12 {
		t.Errorf("Dec = %v, want -0.2", got)
	}
	if got := rec.String(0, 8); got != "HD1234" {
		t.Errorf("String = %q, want HD1234", got)
	}
}

func TestTableValidate(t *testing.T) {
	s := buildTestSchema()
	good := makeRecord("A", 1.0, 0.5, 5)
	tbl := NewTable("stars", "star", 1, s, []ObjectRecord{good})
	if err := tbl.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	bad := makeRecord("B", -1.0, 0.5, 5)
	tbl2 := NewTable("stars", "star", 1, s, []ObjectRecord{bad})
	if err := tbl2.Validate(); err == nil {
		t.Error("expected validation error for negative ra")
	} else if _, ok := err.(*BadCoordinate); !ok {
		t.Errorf("error type = %T, want *BadCoordinate", err)
	}
}

func TestTableLen(t *testing.T) {
	s := buildTestSchema()
	tbl := NewTable("stars", "star", 1, s, []ObjectRecord{
		makeRecord("A", 0, 0, 1),
		makeRecord("B", 1, 1, 2),
	})
	if tbl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tbl.Len())
	}
}
