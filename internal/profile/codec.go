package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The JSON transfer encoding is how upstream parsers hand profiles over:
// null means absent, any other value (including zero and "") is explicit.
// Menu items are flattened envelopes discriminated by their kind field.

// MarshalJSON encodes a present Option as its value and an absent one as null.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent and anything else as a present value.
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Option[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*o = Some(value)
	return nil
}

type menuItemEnvelope struct {
	Kind           MenuItemKind   `json:"kind"`
	ParameterIndex int            `json:"parameter_index,omitempty"`
	Subindex       int            `json:"subindex,omitempty"`
	AccessOverride Option[string] `json:"access_override"`
	SubmenuID      string         `json:"submenu_id,omitempty"`
}

type menuAlias Menu

type menuJSON struct {
	menuAlias
	Items []menuItemEnvelope `json:"items"`
}

// MarshalJSON flattens the tagged union items into discriminated envelopes.
func (m Menu) MarshalJSON() ([]byte, error) {
	out := menuJSON{menuAlias: menuAlias(m)}
	for _, item := range m.Items {
		envelope := menuItemEnvelope{Kind: item.Kind()}
		switch ref := item.(type) {
		case ParameterRef:
			envelope.ParameterIndex = ref.ParameterIndex
			envelope.AccessOverride = ref.AccessOverride
		case RecordRef:
			envelope.ParameterIndex = ref.ParameterIndex
			envelope.Subindex = ref.Subindex
		case SubmenuRef:
			envelope.SubmenuID = ref.MenuID
		default:
			return nil, fmt.Errorf("menu %s holds unknown item type %T", m.ID, item)
		}
		out.Items = append(out.Items, envelope)
	}
	out.menuAlias.Items = nil
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged union from discriminated envelopes.
func (m *Menu) UnmarshalJSON(data []byte) error {
	var in menuJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Menu(in.menuAlias)
	m.Items = nil
	for _, envelope := range in.Items {
		kind, err := ParseMenuItemKind(string(envelope.Kind))
		if err != nil {
			return fmt.Errorf("menu %s: %w", m.ID, err)
		}
		switch kind {
		case KindParameterRef:
			m.Items = append(m.Items, ParameterRef{
				ParameterIndex: envelope.ParameterIndex,
				AccessOverride: envelope.AccessOverride,
			})
		case KindRecordRef:
			m.Items = append(m.Items, RecordRef{
				ParameterIndex: envelope.ParameterIndex,
				Subindex:       envelope.Subindex,
			})
		case KindSubmenuRef:
			m.Items = append(m.Items, SubmenuRef{MenuID: envelope.SubmenuID})
		}
	}
	return nil
}

// ParseJSON decodes and validates one transfer-encoded profile.
func ParseJSON(data []byte) (*DeviceProfile, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var p DeviceProfile
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile rejected: %w", err)
	}
	return &p, nil
}
