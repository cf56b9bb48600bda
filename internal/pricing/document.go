package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document keys as stored by the setting editor.
const (
	KeyCutLength    = "cutLength"
	KeyThickness    = "thickness"
	KeyPass         = "pass"
	KeySettingLevel = "settingLevel"
	KeyQuantity     = "quantity"
	KeyRate         = "rate"
	KeyCritical     = "isCritical"
	KeyPipFinish    = "pipFinish"
	KeySedm         = "sedm"
	KeySedmEnabled  = "enabled"
	KeySedmEntries  = "entries"
	KeyElectrode    = "electrodeSize"
	KeyHoles        = "holes"
)

// Document is a loosely typed setting as it arrives from forms, JSON or YAML.
type Document map[string]any

// Coercion records a present value that could not be read as a number and was zeroed.
type Coercion struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (c Coercion) String() string {
	return fmt.Sprintf("%s=%q", c.Field, c.Value)
}

// FromDocument reads a Setting from a document. Missing and non-numeric fields are
// zero; the non-numeric ones are reported so data-quality problems stay visible.
func FromDocument(doc Document) (Setting, []Coercion) {
	c := &coercer{}
	s := Setting{
		CutLengthMm:  c.number(KeyCutLength, doc[KeyCutLength]),
		ThicknessMm:  c.number(KeyThickness, doc[KeyThickness]),
		PassLevel:    c.integer(KeyPass, doc[KeyPass]),
		SettingLevel: c.number(KeySettingLevel, doc[KeySettingLevel]),
		Quantity:     c.integer(KeyQuantity, doc[KeyQuantity]),
		RatePerHour:  c.number(KeyRate, doc[KeyRate]),
		IsCritical:   c.boolean(doc[KeyCritical]),
		HasPipFinish: c.boolean(doc[KeyPipFinish]),
	}
	if sedm, ok := asMap(doc[KeySedm]); ok {
		s.Sedm.Enabled = c.boolean(sedm[KeySedmEnabled])
		if entries, ok := sedm[KeySedmEntries].([]any); ok {
			for i, raw := range entries {
				entry, ok := asMap(raw)
				if !ok {
					c.flag(fmt.Sprintf("%s.%s[%d]", KeySedm, KeySedmEntries, i), raw)
					continue
				}
				prefix := fmt.Sprintf("%s.%s[%d].", KeySedm, KeySedmEntries, i)
				s.Sedm.Entries = append(s.Sedm.Entries, SedmEntry{
					ThicknessMm:     c.number(prefix+KeyThickness, entry[KeyThickness]),
					ElectrodeSizeMm: c.number(prefix+KeyElectrode, entry[KeyElectrode]),
					HolesPerPiece:   c.integer(prefix+KeyHoles, entry[KeyHoles]),
				})
			}
		}
	}
	return s, c.coerced
}

// ToDocument is the inverse of FromDocument for well-formed settings.
func ToDocument(s Setting) Document {
	entries := make([]any, 0, len(s.Sedm.Entries))
	for _, e := range s.Sedm.Entries {
		entries = append(entries, map[string]any{
			KeyThickness: e.ThicknessMm,
			KeyElectrode: e.ElectrodeSizeMm,
			KeyHoles:     e.HolesPerPiece,
		})
	}
	return Document{
		KeyCutLength:    s.CutLengthMm,
		KeyThickness:    s.ThicknessMm,
		KeyPass:         strconv.Itoa(s.PassLevel),
		KeySettingLevel: s.SettingLevel,
		KeyQuantity:     s.Quantity,
		KeyRate:         s.RatePerHour,
		KeyCritical:     s.IsCritical,
		KeyPipFinish:    s.HasPipFinish,
		KeySedm: map[string]any{
			KeySedmEnabled: s.Sedm.Enabled,
			KeySedmEntries: entries,
		},
	}
}

type coercer struct {
	coerced []Coercion
}

func (c *coercer) flag(field string, raw any) {
	c.coerced = append(c.coerced, Coercion{Field: field, Value: fmt.Sprint(raw)})
}

func (c *coercer) number(field string, raw any) float64 {
	v, ok := toFloat(raw)
	if !ok {
		c.flag(field, raw)
		return 0
	}
	return v
}

func (c *coercer) integer(field string, raw any) int {
	return int(math.Trunc(c.number(field, raw)))
}

func (c *coercer) boolean(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			return true
		}
		return false
	default:
		f, ok := toFloat(raw)
		return ok && f != 0
	}
}

// toFloat reports ok=false only for present values that are not numbers.
func toFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, true
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case uint:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case Document:
		return v, true
	default:
		return nil, false
	}
}
