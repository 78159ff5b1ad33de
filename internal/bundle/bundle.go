// Package bundle reads and writes model bundles: a model definition together
// with its reference dataset and sensitivity curves, as one YAML or JSON
// document.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidBundle     = errors.New("invalid bundle")
	ErrUnsupportedFormat = errors.New("unsupported bundle format")
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Bundle is the portable form of a model. Reference rows are listed in row-id
// order.
type Bundle struct {
	Name               string                       `json:"name" yaml:"name" validate:"required,max=200"`
	FeatureNames       []string                     `json:"feature_names" yaml:"feature_names" validate:"required,min=1,dive,required"`
	Controllable       []domain.ControllableFeature `json:"controllable" yaml:"controllable" validate:"required,min=1"`
	TargetConfidence   float64                      `json:"target_confidence" yaml:"target_confidence" validate:"gt=0,lte=1"`
	NNeighbors         int                          `json:"n_neighbors" yaml:"n_neighbors" validate:"min=1"`
	NStartingSolutions int                          `json:"n_starting_solutions" yaml:"n_starting_solutions" validate:"min=1"`
	Delta              float64                      `json:"delta" yaml:"delta" validate:"gt=0"`
	Score              domain.LinearScore           `json:"score" yaml:"score"`
	Predictor          domain.PredictorSpec         `json:"predictor" yaml:"predictor"`
	Reference          [][]float64                  `json:"reference" yaml:"reference" validate:"required,min=1,dive,required"`
	Curves             []domain.CurveSpec           `json:"curves" yaml:"curves" validate:"required,min=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads and validates the bundle at path.
func Load(path string) (*Bundle, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

// Decode reads one bundle from r and validates it.
func Decode(r io.Reader, format Format) (*Bundle, error) {
	var b Bundle
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Encode writes b to w.
func (b *Bundle) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Save writes b to path in the format its extension names.
func (b *Bundle) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := b.Encode(&buf, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Validate checks the bundle's shape. Cross-field rules (widths, curve
// coverage, predictor settings) are checked by service.ValidateDefinition.
func (b *Bundle) Validate() error {
	return validateStruct(b)
}

// validateStruct validates any struct carrying validate tags and flattens the
// failures into one ErrInvalidBundle error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// Definition converts the bundle into a model definition. Row ids follow
// the order of Reference.
func (b *Bundle) Definition() *service.ModelDefinition {
	m := &domain.Model{
		Name:               b.Name,
		FeatureNames:       append([]string(nil), b.FeatureNames...),
		Controllable:       append([]domain.ControllableFeature(nil), b.Controllable...),
		TargetConfidence:   b.TargetConfidence,
		NNeighbors:         b.NNeighbors,
		NStartingSolutions: b.NStartingSolutions,
		Delta:              b.Delta,
		Score:              b.Score,
		Predictor:          b.Predictor,
	}
	rows := make([]domain.ReferenceRow, len(b.Reference))
	for i, values := range b.Reference {
		rows[i] = domain.ReferenceRow{RowID: i, Values: append([]float64(nil), values...)}
	}
	return &service.ModelDefinition{
		Model:     m,
		Reference: rows,
		Curves:    append([]domain.CurveSpec(nil), b.Curves...),
	}
}

// FromDefinition is the inverse of Definition. Rows are placed by row id.
func FromDefinition(def *service.ModelDefinition) *Bundle {
	m := def.Model
	ref := make([][]float64, len(def.Reference))
	for _, r := range def.Reference {
		if r.RowID >= 0 && r.RowID < len(ref) {
			ref[r.RowID] = append([]float64(nil), r.Values...)
		}
	}
	return &Bundle{
		Name:               m.Name,
		FeatureNames:       append([]string(nil), m.FeatureNames...),
		Controllable:       append([]domain.ControllableFeature(nil), m.Controllable...),
		TargetConfidence:   m.TargetConfidence,
		NNeighbors:         m.NNeighbors,
		NStartingSolutions: m.NStartingSolutions,
		Delta:              m.Delta,
		Score:              m.Score,
		Predictor:          m.Predictor,
		Reference:          ref,
		Curves:             append([]domain.CurveSpec(nil), def.Curves...),
	}
}
