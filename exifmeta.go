package main

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExifKind tells which member of an ExifValue is meaningful.
type ExifKind int

const (
	KindRational ExifKind = iota
	KindInteger
	KindText
)

// ExifValue is a single EXIF value, typed once at parse time.
type ExifValue struct {
	Kind ExifKind
	Num  int64
	Den  int64
	Int  int64
	Text string
}

func Rational(num, den int64) ExifValue { return ExifValue{Kind: KindRational, Num: num, Den: den} }
func Integer(n int64) ExifValue         { return ExifValue{Kind: KindInteger, Int: n} }
func Text(s string) ExifValue           { return ExifValue{Kind: KindText, Text: s} }

// Float returns the numeric value. ok is false for text that does not parse
// and for rationals with a zero denominator.
func (v ExifValue) Float() (float64, bool) {
	switch v.Kind {
	case KindRational:
		if v.Den == 0 {
			return 0, false
		}
		return float64(v.Num) / float64(v.Den), true
	case KindInteger:
		return float64(v.Int), true
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

func (v ExifValue) String() string {
	switch v.Kind {
	case KindRational:
		return fmt.Sprintf("%d/%d", v.Num, v.Den)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Text
	}
}

// ExifField enumerates the tags the pipeline cares about.
type ExifField int

const (
	FieldCameraModel ExifField = iota
	FieldLensModel
	FieldFocalLength
	FieldAperture
	FieldExposureTime
	FieldISO
	FieldOrientation
)

var knownTags = map[exif.FieldName]ExifField{
	exif.Model:           FieldCameraModel,
	exif.LensModel:       FieldLensModel,
	exif.FocalLength:     FieldFocalLength,
	exif.FNumber:         FieldAperture,
	exif.ExposureTime:    FieldExposureTime,
	exif.ISOSpeedRatings: FieldISO,
	exif.Orientation:     FieldOrientation,
}

// ExifMetadata is a read-only snapshot of the known tags of one photo.
// Absent tags have no entry.
type ExifMetadata struct {
	values map[ExifField]ExifValue
}

func NewExifMetadata(values map[ExifField]ExifValue) *ExifMetadata {
	m := &ExifMetadata{values: make(map[ExifField]ExifValue, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *ExifMetadata) Get(f ExifField) (ExifValue, bool) {
	if m == nil {
		return ExifValue{}, false
	}
	v, ok := m.values[f]
	return v, ok
}

func (m *ExifMetadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// Orientation returns the orientation tag, or 1 when absent or unreadable.
func (m *ExifMetadata) Orientation() int {
	v, ok := m.Get(FieldOrientation)
	if !ok {
		return 1
	}
	f, ok := v.Float()
	if !ok {
		return 1
	}
	return int(f)
}

// without returns a copy with field f removed.
func (m *ExifMetadata) without(f ExifField) *ExifMetadata {
	if m == nil {
		return nil
	}
	out := NewExifMetadata(m.values)
	delete(out.values, f)
	return out
}

// ReadExif takes the metadata snapshot of an encoded JPEG. It never fails:
// a missing or broken EXIF block gives an empty snapshot.
func ReadExif(data []byte) *ExifMetadata {
	m := &ExifMetadata{values: map[ExifField]ExifValue{}}
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return m
	}
	for name, field := range knownTags {
		tag, err := x.Get(name)
		if err != nil || tag == nil {
			continue
		}
		if v, ok := tagValue(tag); ok {
			m.values[field] = v
		}
	}
	return m
}

func tagValue(tag *tiff.Tag) (ExifValue, bool) {
	switch tag.Format() {
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil {
			return ExifValue{}, false
		}
		return Rational(num, den), true
	case tiff.IntVal:
		n, err := tag.Int64(0)
		if err != nil {
			return ExifValue{}, false
		}
		return Integer(n), true
	case tiff.FloatVal:
		f, err := tag.Float(0)
		if err != nil {
			return ExifValue{}, false
		}
		r := new(big.Rat)
		if r.SetFloat64(f) == nil || !r.Num().IsInt64() || !r.Denom().IsInt64() {
			return ExifValue{}, false
		}
		return Rational(r.Num().Int64(), r.Denom().Int64()), true
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return ExifValue{}, false
		}
		s = strings.TrimSpace(strings.Trim(s, "\x00"))
		if s == "" {
			return ExifValue{}, false
		}
		return Text(s), true
	default:
		return ExifValue{}, false
	}
}

// FormatMetadata renders up to three lines: camera model, lens model and an
// exposure line of focal length, aperture, shutter speed and ISO.
func FormatMetadata(m *ExifMetadata) string {
	var lines []string
	if v, ok := m.Get(FieldCameraModel); ok {
		if s := strings.TrimSpace(v.String()); s != "" {
			lines = append(lines, s)
		}
	}
	if v, ok := m.Get(FieldLensModel); ok {
		if s := strings.TrimSpace(v.String()); s != "" {
			lines = append(lines, s)
		}
	}

	var exposure []string
	if v, ok := m.Get(FieldFocalLength); ok {
		if f, ok := v.Float(); ok {
			exposure = append(exposure, oneDecimal(f)+"mm")
		}
	}
	if v, ok := m.Get(FieldAperture); ok {
		if f, ok := v.Float(); ok {
			exposure = append(exposure, "f/"+oneDecimal(f))
		}
	}
	if v, ok := m.Get(FieldExposureTime); ok {
		exposure = append(exposure, formatShutter(v))
	}
	if v, ok := m.Get(FieldISO); ok {
		if s := formatISO(v); s != "" {
			exposure = append(exposure, "ISO"+s)
		}
	}
	if len(exposure) > 0 {
		lines = append(lines, strings.Join(exposure, " "))
	}
	return strings.Join(lines, "\n")
}

func oneDecimal(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', 1, 64)
}

func formatISO(v ExifValue) string {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Text)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	default:
		if f, ok := v.Float(); ok {
			return strconv.FormatInt(int64(math.Round(f)), 10)
		}
		return ""
	}
}

const maxShutterDenominator = 100000

func formatShutter(v ExifValue) string {
	if v.Kind == KindRational && v.Den != 0 {
		return fmt.Sprintf("%d/%dsec", v.Num, v.Den)
	}
	if f, ok := v.Float(); ok {
		if n, d, ok := limitDenominator(f, maxShutterDenominator); ok {
			return fmt.Sprintf("%d/%dsec", n, d)
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) {
			return strconv.FormatFloat(f, 'f', 5, 64) + "sec"
		}
	}
	s := []rune(v.String())
	if len(s) > 10 {
		s = s[:10]
	}
	return string(s) + "sec"
}

// limitDenominator finds the closest fraction n/d to f with 0 < d <= maxDen,
// walking the continued fraction expansion of f.
func limitDenominator(f float64, maxDen int64) (int64, int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || maxDen < 1 {
		return 0, 0, false
	}
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return 0, 0, false
	}
	if r.Denom().Cmp(big.NewInt(maxDen)) <= 0 {
		if !r.Num().IsInt64() {
			return 0, 0, false
		}
		return r.Num().Int64(), r.Denom().Int64(), true
	}

	p0, q0, p1, q1 := big.NewInt(0), big.NewInt(1), big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(r.Num())
	d := new(big.Int).Set(r.Denom())
	limit := big.NewInt(maxDen)
	for {
		a := new(big.Int)
		m := new(big.Int)
		a.DivMod(n, d, m)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p0, q0, p1, q1 = p1, q1, new(big.Int).Add(p0, new(big.Int).Mul(a, p1)), q2
		n, d = d, m
		if d.Sign() == 0 {
			break
		}
	}

	// semiconvergent p0+k*p1 / q0+k*q1 with the largest k that fits
	k := new(big.Int).Div(new(big.Int).Sub(limit, q0), q1)
	b1 := new(big.Rat).SetFrac(new(big.Int).Add(p0, new(big.Int).Mul(k, p1)), new(big.Int).Add(q0, new(big.Int).Mul(k, q1)))
	b2 := new(big.Rat).SetFrac(p1, q1)
	d1 := new(big.Rat).Abs(new(big.Rat).Sub(b2, r))
	d2 := new(big.Rat).Abs(new(big.Rat).Sub(b1, r))
	best := b2
	if d2.Cmp(d1) < 0 {
		best = b1
	}
	if !best.Num().IsInt64() || !best.Denom().IsInt64() {
		return 0, 0, false
	}
	return best.Num().Int64(), best.Denom().Int64(), true
}
