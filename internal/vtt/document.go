package vtt

import "encoding/json"

// Data is the open-ended bag of system-specific document fields. The shape
// depends on the game system installed on the remote server, so access is
// path-based and never panics.
type Data map[string]any

// value walks nested maps along path.
func (d Data) value(path ...string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var current any = map[string]any(d)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the string at the nested path.
func (d Data) String(path ...string) (string, bool) {
	v, ok := d.value(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns the numeric value at the nested path.
func (d Data) Number(path ...string) (float64, bool) {
	v, ok := d.value(path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns the boolean at the nested path.
func (d Data) Bool(path ...string) (bool, bool) {
	v, ok := d.value(path...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Map returns the nested object at the path.
func (d Data) Map(path ...string) (Data, bool) {
	v, ok := d.value(path...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Data(m), true
}

// Slice returns the array at the nested path.
func (d Data) Slice(path ...string) ([]any, bool) {
	v, ok := d.value(path...)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// Document is one record within a world collection. ID is unique within the
// collection; Data carries every field beyond the stable id/name/type
// triple.
type Document struct {
	ID   string
	Name string
	Type string
	Data Data
}

// UnmarshalJSON splits the stable fields from the system-specific remainder.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if id, ok := raw["_id"].(string); ok {
		d.ID = id
	} else if id, ok := raw["id"].(string); ok {
		d.ID = id
	}
	if name, ok := raw["name"].(string); ok {
		d.Name = name
	}
	if typ, ok := raw["type"].(string); ok {
		d.Type = typ
	}
	delete(raw, "_id")
	delete(raw, "id")
	delete(raw, "name")
	delete(raw, "type")
	d.Data = Data(raw)
	return nil
}

// systemRoots lists where game systems nest their fields. Current servers
// use "system"; older worlds exported "data".
var systemRoots = []string{"system", "data"}

// systemNumber probes the system roots for a numeric field.
func systemNumber(d Document, path ...string) (float64, bool) {
	for _, root := range systemRoots {
		if n, ok := d.Data.Number(append([]string{root}, path...)...); ok {
			return n, true
		}
	}
	return 0, false
}

// systemString probes the system roots for a string field.
func systemString(d Document, path ...string) (string, bool) {
	for _, root := range systemRoots {
		if s, ok := d.Data.String(append([]string{root}, path...)...); ok {
			return s, true
		}
	}
	return "", false
}

// systemMap probes the system roots for an object field.
func systemMap(d Document, path ...string) (Data, bool) {
	for _, root := range systemRoots {
		if m, ok := d.Data.Map(append([]string{root}, path...)...); ok {
			return m, true
		}
	}
	return nil, false
}

// ActorSummary is the normalized subset of an actor document that is stable
// across game systems.
type ActorSummary struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      string             `json:"type,omitempty"`
	HP        *float64           `json:"hp,omitempty"`
	MaxHP     *float64           `json:"max_hp,omitempty"`
	AC        *float64           `json:"ac,omitempty"`
	Abilities map[string]float64 `json:"abilities,omitempty"`
	Biography string             `json:"biography,omitempty"`
}

// NormalizeActor extracts the stable subset of an actor document.
func NormalizeActor(d Document) ActorSummary {
	summary := ActorSummary{ID: d.ID, Name: d.Name, Type: d.Type}
	if hp, ok := systemNumber(d, "attributes", "hp", "value"); ok {
		summary.HP = &hp
	}
	if max, ok := systemNumber(d, "attributes", "hp", "max"); ok {
		summary.MaxHP = &max
	}
	if ac, ok := systemNumber(d, "attributes", "ac", "value"); ok {
		summary.AC = &ac
	}
	if abilities, ok := systemMap(d, "abilities"); ok {
		values := make(map[string]float64)
		for name := range abilities {
			if v, ok := abilities.Number(name, "value"); ok {
				values[name] = v
			}
		}
		if len(values) > 0 {
			summary.Abilities = values
		}
	}
	if bio, ok := systemString(d, "details", "biography", "value"); ok {
		summary.Biography = bio
	}
	return summary
}

// ItemSummary is the normalized subset of an item document.
type ItemSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	Rarity      string   `json:"rarity,omitempty"`
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
}

// NormalizeItem extracts the stable subset of an item document.
func NormalizeItem(d Document) ItemSummary {
	summary := ItemSummary{ID: d.ID, Name: d.Name, Type: d.Type}
	if rarity, ok := systemString(d, "rarity"); ok {
		summary.Rarity = rarity
	}
	if desc, ok := systemString(d, "description", "value"); ok {
		summary.Description = desc
	}
	if qty, ok := systemNumber(d, "quantity"); ok {
		summary.Quantity = &qty
	}
	return summary
}

// SceneSummary is the normalized subset of a scene document.
type SceneSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Active bool     `json:"active"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// NormalizeScene extracts the stable subset of a scene document.
func NormalizeScene(d Document) SceneSummary {
	summary := SceneSummary{ID: d.ID, Name: d.Name}
	if active, ok := d.Data.Bool("active"); ok {
		summary.Active = active
	}
	if width, ok := d.Data.Number("width"); ok {
		summary.Width = &width
	}
	if height, ok := d.Data.Number("height"); ok {
		summary.Height = &height
	}
	return summary
}

// sceneActive reports whether a scene document is flagged active.
func sceneActive(d Document) bool {
	active, ok := d.Data.Bool("active")
	return ok && active
}
