package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"retrace/internal/profile"
)

// DeviceProfile loads the stored profile for a device. It satisfies the
// analyzer's profile reader contract and returns ErrNotFound when the device
// was never imported.
func (s *Store) DeviceProfile(ctx context.Context, deviceID string) (*profile.DeviceProfile, error) {
	p := &profile.DeviceProfile{DeviceID: deviceID}

	var vendorID, vendorName, productName, revision sql.NullString
	err := s.db.QueryRowContext(
		ctx,
		`SELECT vendor_id, vendor_name, product_name, revision FROM profiles WHERE device_id = ?`,
		deviceID,
	).Scan(&vendorID, &vendorName, &productName, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", deviceID, err)
	}
	p.VendorID = stringOpt(vendorID)
	p.VendorName = stringOpt(vendorName)
	p.ProductName = stringOpt(productName)
	p.Revision = stringOpt(revision)

	if p.Parameters, err = s.loadParameters(ctx, deviceID); err != nil {
		return nil, err
	}
	if p.Assemblies, err = s.loadAssemblies(ctx, deviceID); err != nil {
		return nil, err
	}
	if p.Menus, err = s.loadMenus(ctx, deviceID); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the ids of every device with a stored profile.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT device_id FROM profiles ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadParameters(ctx context.Context, deviceID string) ([]profile.Parameter, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT idx, name, data_type, access, access_is_schema_default,
                default_value, unit, description, dynamic, order_index,
                condition_present, condition_variable, condition_value,
                datatype_present, datatype_kind, datatype_bit_length, datatype_encoding
         FROM parameters WHERE device_id = ? ORDER BY idx`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load parameters %s: %w", deviceID, err)
	}
	defer rows.Close()

	var params []profile.Parameter
	byIndex := make(map[int]int)
	for rows.Next() {
		var (
			param             profile.Parameter
			access            sql.NullString
			schemaDefault     int64
			defaultValue      sql.NullString
			unit              sql.NullString
			description       sql.NullString
			dynamic           sql.NullInt64
			orderIndex        sql.NullInt64
			conditionPresent  int64
			conditionVariable sql.NullString
			conditionValue    sql.NullString
			datatypePresent   int64
			datatypeKind      sql.NullString
			datatypeBitLength sql.NullInt64
			datatypeEncoding  sql.NullString
		)
		if err := rows.Scan(
			&param.Index, &param.Name, &param.DataType, &access, &schemaDefault,
			&defaultValue, &unit, &description, &dynamic, &orderIndex,
			&conditionPresent, &conditionVariable, &conditionValue,
			&datatypePresent, &datatypeKind, &datatypeBitLength, &datatypeEncoding,
		); err != nil {
			return nil, fmt.Errorf("scan parameter row: %w", err)
		}
		param.Access = stringOpt(access)
		param.AccessIsSchemaDefault = schemaDefault != 0
		param.DefaultValue = stringOpt(defaultValue)
		param.Unit = stringOpt(unit)
		param.Description = stringOpt(description)
		param.Dynamic = boolOpt(dynamic)
		param.OrderIndex = intOpt(orderIndex)
		if conditionPresent != 0 {
			param.Condition = profile.Some(profile.Condition{
				VariableRef: conditionVariable.String,
				Value:       conditionValue.String,
			})
		}
		if datatypePresent != 0 {
			param.Datatype = profile.Some(profile.DatatypeDetail{
				Kind:      datatypeKind.String,
				BitLength: intOpt(datatypeBitLength),
				Encoding:  stringOpt(datatypeEncoding),
			})
		}
		byIndex[param.Index] = len(params)
		params = append(params, param)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameters: %w", err)
	}

	if err := s.loadRecordItems(ctx, deviceID, params, byIndex); err != nil {
		return nil, err
	}
	if err := s.loadSingleValues(ctx, deviceID, params, byIndex); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *Store) loadRecordItems(ctx context.Context, deviceID string, params []profile.Parameter, byIndex map[int]int) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT parameter_index, subindex, name, data_type, bit_offset, bit_length, order_index
         FROM record_items WHERE device_id = ? ORDER BY parameter_index, subindex`,
		deviceID,
	)
	if err != nil {
		return fmt.Errorf("load record items %s: %w", deviceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parameterIndex int
			item           profile.RecordItem
			bitOffset      sql.NullInt64
			bitLength      sql.NullInt64
			orderIndex     sql.NullInt64
		)
		if err := rows.Scan(&parameterIndex, &item.Subindex, &item.Name, &item.DataType, &bitOffset, &bitLength, &orderIndex); err != nil {
			return fmt.Errorf("scan record item row: %w", err)
		}
		item.BitOffset = intOpt(bitOffset)
		item.BitLength = intOpt(bitLength)
		item.OrderIndex = intOpt(orderIndex)
		slot, ok := byIndex[parameterIndex]
		if !ok {
			return fmt.Errorf("record item references unknown parameter %d", parameterIndex)
		}
		params[slot].RecordItems = append(params[slot].RecordItems, item)
	}
	return rows.Err()
}

func (s *Store) loadSingleValues(ctx context.Context, deviceID string, params []profile.Parameter, byIndex map[int]int) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT parameter_index, record_subindex, seq, value, name, order_index
         FROM single_values WHERE device_id = ? ORDER BY parameter_index, record_subindex, seq`,
		deviceID,
	)
	if err != nil {
		return fmt.Errorf("load single values %s: %w", deviceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parameterIndex int
			recordSubindex sql.NullInt64
			seq            int
			value          profile.SingleValue
			name           sql.NullString
			orderIndex     sql.NullInt64
		)
		if err := rows.Scan(&parameterIndex, &recordSubindex, &seq, &value.Value, &name, &orderIndex); err != nil {
			return fmt.Errorf("scan single value row: %w", err)
		}
		value.Name = stringOpt(name)
		value.OrderIndex = intOpt(orderIndex)

		slot, ok := byIndex[parameterIndex]
		if !ok {
			return fmt.Errorf("single value references unknown parameter %d", parameterIndex)
		}
		if !recordSubindex.Valid {
			params[slot].SingleValues = append(params[slot].SingleValues, value)
			continue
		}
		attached := false
		for i := range params[slot].RecordItems {
			if params[slot].RecordItems[i].Subindex == int(recordSubindex.Int64) {
				params[slot].RecordItems[i].SingleValues = append(params[slot].RecordItems[i].SingleValues, value)
				attached = true
				break
			}
		}
		if !attached {
			return fmt.Errorf("single value references unknown record %d/%d", parameterIndex, recordSubindex.Int64)
		}
	}
	return rows.Err()
}

func (s *Store) loadAssemblies(ctx context.Context, deviceID string) ([]profile.Assembly, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, order_index, seq FROM assemblies WHERE device_id = ? ORDER BY seq`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load assemblies %s: %w", deviceID, err)
	}
	defer rows.Close()

	var assemblies []profile.Assembly
	byID := make(map[string]int)
	for rows.Next() {
		var (
			assembly   profile.Assembly
			name       sql.NullString
			orderIndex sql.NullInt64
			seq        int
		)
		if err := rows.Scan(&assembly.ID, &name, &orderIndex, &seq); err != nil {
			return nil, fmt.Errorf("scan assembly row: %w", err)
		}
		assembly.Name = stringOpt(name)
		assembly.OrderIndex = intOpt(orderIndex)
		byID[assembly.ID] = len(assemblies)
		assemblies = append(assemblies, assembly)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assemblies: %w", err)
	}

	slotRows, err := s.db.QueryContext(
		ctx,
		`SELECT assembly_id, position, parameter_index
         FROM assembly_slots WHERE device_id = ? ORDER BY assembly_id, position`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load assembly slots %s: %w", deviceID, err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var (
			assemblyID string
			slot       profile.AssemblySlot
		)
		if err := slotRows.Scan(&assemblyID, &slot.Position, &slot.ParameterIndex); err != nil {
			return nil, fmt.Errorf("scan assembly slot row: %w", err)
		}
		at, ok := byID[assemblyID]
		if !ok {
			return nil, fmt.Errorf("slot references unknown assembly %s", assemblyID)
		}
		assemblies[at].Slots = append(assemblies[at].Slots, slot)
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assembly slots: %w", err)
	}
	for i := range assemblies {
		sort.Slice(assemblies[i].Slots, func(a, b int) bool {
			return assemblies[i].Slots[a].Position < assemblies[i].Slots[b].Position
		})
	}
	return assemblies, nil
}

func (s *Store) loadMenus(ctx context.Context, deviceID string) ([]profile.Menu, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, order_index, seq FROM menus WHERE device_id = ? ORDER BY seq`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load menus %s: %w", deviceID, err)
	}
	defer rows.Close()

	var menus []profile.Menu
	byID := make(map[string]int)
	for rows.Next() {
		var (
			menu       profile.Menu
			name       sql.NullString
			orderIndex sql.NullInt64
			seq        int
		)
		if err := rows.Scan(&menu.ID, &name, &orderIndex, &seq); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}
		menu.Name = stringOpt(name)
		menu.OrderIndex = intOpt(orderIndex)
		byID[menu.ID] = len(menus)
		menus = append(menus, menu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menus: %w", err)
	}

	itemRows, err := s.db.QueryContext(
		ctx,
		`SELECT menu_id, kind, parameter_index, subindex, access_override, submenu_id
         FROM menu_items WHERE device_id = ? ORDER BY menu_id, seq`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("load menu items %s: %w", deviceID, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			menuID         string
			kindValue      string
			parameterIndex sql.NullInt64
			subindex       sql.NullInt64
			accessOverride sql.NullString
			submenuID      sql.NullString
		)
		if err := itemRows.Scan(&menuID, &kindValue, &parameterIndex, &subindex, &accessOverride, &submenuID); err != nil {
			return nil, fmt.Errorf("scan menu item row: %w", err)
		}
		kind, err := profile.ParseMenuItemKind(kindValue)
		if err != nil {
			return nil, fmt.Errorf("menu %s: %w", menuID, err)
		}

		var item profile.MenuItem
		switch kind {
		case profile.KindParameterRef:
			item = profile.ParameterRef{
				ParameterIndex: int(parameterIndex.Int64),
				AccessOverride: stringOpt(accessOverride),
			}
		case profile.KindRecordRef:
			item = profile.RecordRef{
				ParameterIndex: int(parameterIndex.Int64),
				Subindex:       int(subindex.Int64),
			}
		case profile.KindSubmenuRef:
			item = profile.SubmenuRef{MenuID: submenuID.String}
		}

		at, ok := byID[menuID]
		if !ok {
			return nil, fmt.Errorf("item references unknown menu %s", menuID)
		}
		menus[at].Items = append(menus[at].Items, item)
	}
	return menus, itemRows.Err()
}
