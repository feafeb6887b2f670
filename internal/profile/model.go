package profile

import "fmt"

// DeviceProfile is the flattened relational model of one parsed device
// description file. It is supplied by the upstream parsers; the engine only
// reads it.
type DeviceProfile struct {
	DeviceID    string         `json:"device_id"`
	VendorID    Option[string] `json:"vendor_id"`
	VendorName  Option[string] `json:"vendor_name"`
	ProductName Option[string] `json:"product_name"`
	Revision    Option[string] `json:"revision"`
	Parameters  []Parameter    `json:"parameters,omitempty"`
	Assemblies  []Assembly     `json:"assemblies,omitempty"`
	Menus       []Menu         `json:"menus,omitempty"`
}

// Parameter models one device parameter. Index is the natural key used for
// list alignment in both dialects.
type Parameter struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	DataType string `json:"data_type"`

	// Access records the access mode attribute when the original carried one.
	// AccessIsSchemaDefault marks the case where the original explicitly wrote
	// the schema default value; the attribute must still be emitted.
	Access                Option[string] `json:"access"`
	AccessIsSchemaDefault bool           `json:"access_is_schema_default,omitempty"`

	DefaultValue Option[string] `json:"default_value"`
	Unit         Option[string] `json:"unit"`
	Description  Option[string] `json:"description"`

	// Dynamic is tri-state: absent, explicit false, explicit true.
	Dynamic Option[bool] `json:"dynamic"`

	// OrderIndex preserves original document position among siblings whose
	// sequence carries no other meaning.
	OrderIndex Option[int] `json:"order_index"`

	// Condition is present only when the original guarded the parameter with a
	// variant condition.
	Condition Option[Condition] `json:"condition"`

	// Datatype is the xsi:type-style variant element. It is emitted only when
	// the parse recorded its presence, never synthesized from DataType.
	Datatype Option[DatatypeDetail] `json:"datatype"`

	RecordItems  []RecordItem  `json:"record_items,omitempty"`
	SingleValues []SingleValue `json:"single_values,omitempty"`
}

// Condition guards a conditional parameter on a variable value.
type Condition struct {
	VariableRef string `json:"variable_ref"`
	Value       string `json:"value"`
}

// DatatypeDetail is the expanded datatype element with its recorded
// discriminator.
type DatatypeDetail struct {
	Kind      string         `json:"kind"`
	BitLength Option[int]    `json:"bit_length"`
	Encoding  Option[string] `json:"encoding"`
}

// RecordItem is one field of a record-typed parameter. Subindex is the
// natural key.
type RecordItem struct {
	Subindex     int           `json:"subindex"`
	Name         string        `json:"name"`
	DataType     string        `json:"data_type"`
	BitOffset    Option[int]   `json:"bit_offset"`
	BitLength    Option[int]   `json:"bit_length"`
	OrderIndex   Option[int]   `json:"order_index"`
	SingleValues []SingleValue `json:"single_values,omitempty"`
}

// SingleValue is one enumerated value of a parameter or record item. Value is
// the natural key.
type SingleValue struct {
	Value      string         `json:"value"`
	Name       Option[string] `json:"name"`
	OrderIndex Option[int]    `json:"order_index"`
}

// Assembly maps parameters into a positioned I/O assembly.
type Assembly struct {
	ID         string         `json:"id"`
	Name       Option[string] `json:"name"`
	OrderIndex Option[int]    `json:"order_index"`
	Slots      []AssemblySlot `json:"slots,omitempty"`
}

// AssemblySlot binds a parameter into an assembly position. Position is the
// natural key.
type AssemblySlot struct {
	Position       int `json:"position"`
	ParameterIndex int `json:"parameter_index"`
}

// Menu is a display menu referencing parameters, record items, or submenus.
type Menu struct {
	ID         string         `json:"id"`
	Name       Option[string] `json:"name"`
	OrderIndex Option[int]    `json:"order_index"`
	Items      []MenuItem     `json:"items,omitempty"`
}

// Validate checks the internal invariants the reconstructor depends on:
// required identity and resolvable references. Optional data being absent is
// never a violation.
func (p *DeviceProfile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if p.DeviceID == "" {
		return fmt.Errorf("device id is empty")
	}

	paramsByIndex := make(map[int]*Parameter, len(p.Parameters))
	for i := range p.Parameters {
		param := &p.Parameters[i]
		if param.Name == "" {
			return fmt.Errorf("parameter index %d has no name", param.Index)
		}
		if _, dup := paramsByIndex[param.Index]; dup {
			return fmt.Errorf("duplicate parameter index %d", param.Index)
		}
		paramsByIndex[param.Index] = param

		seenSub := make(map[int]struct{}, len(param.RecordItems))
		for _, item := range param.RecordItems {
			if _, dup := seenSub[item.Subindex]; dup {
				return fmt.Errorf("parameter %d: duplicate record subindex %d", param.Index, item.Subindex)
			}
			seenSub[item.Subindex] = struct{}{}
		}
	}

	for _, assembly := range p.Assemblies {
		if assembly.ID == "" {
			return fmt.Errorf("assembly with empty id")
		}
		for _, slot := range assembly.Slots {
			if _, ok := paramsByIndex[slot.ParameterIndex]; !ok {
				return fmt.Errorf("assembly %s slot %d references unknown parameter %d", assembly.ID, slot.Position, slot.ParameterIndex)
			}
		}
	}

	menuIDs := make(map[string]struct{}, len(p.Menus))
	for _, menu := range p.Menus {
		if menu.ID == "" {
			return fmt.Errorf("menu with empty id")
		}
		menuIDs[menu.ID] = struct{}{}
	}
	for _, menu := range p.Menus {
		for _, item := range menu.Items {
			switch ref := item.(type) {
			case ParameterRef:
				if _, ok := paramsByIndex[ref.ParameterIndex]; !ok {
					return fmt.Errorf("menu %s references unknown parameter %d", menu.ID, ref.ParameterIndex)
				}
			case RecordRef:
				param, ok := paramsByIndex[ref.ParameterIndex]
				if !ok {
					return fmt.Errorf("menu %s references unknown parameter %d", menu.ID, ref.ParameterIndex)
				}
				found := false
				for _, record := range param.RecordItems {
					if record.Subindex == ref.Subindex {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("menu %s references unknown record %d/%d", menu.ID, ref.ParameterIndex, ref.Subindex)
				}
			case SubmenuRef:
				if _, ok := menuIDs[ref.MenuID]; !ok {
					return fmt.Errorf("menu %s references unknown submenu %s", menu.ID, ref.MenuID)
				}
			default:
				return fmt.Errorf("menu %s holds unknown item type %T", menu.ID, item)
			}
		}
	}
	return nil
}
