package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// EmbeddingDim is the column width used when migrating vector columns.
var EmbeddingDim = 1024

// Vector is a pgvector column. It implements sql.Scanner / driver.Valuer so
// GORM treats it as a scalar.
type Vector []float32

func (Vector) GormDataType() string {
	return "vector"
}

func (Vector) GormDBDataType(_ *gorm.DB, _ *schema.Field) string {
	dim := EmbeddingDim
	if dim <= 0 {
		dim = 1024
	}
	return fmt.Sprintf("vector(%d)", dim)
}

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return v.Literal(), nil
}

// Literal renders the pgvector text form, e.g. "[0.1,0.2]".
func (v Vector) Literal() string {
	parts := make([]string, 0, len(v))
	for _, f := range v {
		parts = append(parts, strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ","))
}

func (v *Vector) Scan(value interface{}) error {
	if v == nil {
		return fmt.Errorf("Vector.Scan: nil receiver")
	}
	if value == nil {
		*v = nil
		return nil
	}
	var s string
	switch x := value.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return fmt.Errorf("Vector.Scan: unsupported type %T", value)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		*v = Vector{}
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]float32, 0, len(raw))
	for _, part := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return fmt.Errorf("Vector.Scan: parse float: %w", err)
		}
		out = append(out, float32(f))
	}
	*v = out
	return nil
}

// FromFloat64 narrows an embedding returned by an API client.
func FromFloat64(in []float64) Vector {
	out := make(Vector, len(in))
	for i, f := range in {
		out[i] = float32(f)
	}
	return out
}
