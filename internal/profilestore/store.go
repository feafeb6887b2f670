package profilestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"retrace/internal/config"
	"retrace/internal/profile"
	"retrace/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound marks a device with no stored profile.
var ErrNotFound = errors.New("device profile not found")

// Store persists the relational device profile model in SQLite. Tri-state
// scalar fields map to nullable columns: NULL is the absence sentinel, any
// non-NULL value (including zero and empty string) is an explicit value.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the profile database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	db, err := storage.Open(cfg.ProfileDBPath())
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(context.Background(), db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save validates and persists a profile, replacing any previous version for
// the same device in one transaction.
func (s *Store) Save(ctx context.Context, p *profile.DeviceProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile rejected: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE device_id = ?`, p.DeviceID); err != nil {
		return fmt.Errorf("clear previous profile: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO profiles (device_id, vendor_id, vendor_name, product_name, revision, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		p.DeviceID,
		optString(p.VendorID),
		optString(p.VendorName),
		optString(p.ProductName),
		optString(p.Revision),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	for i := range p.Parameters {
		if err := insertParameter(ctx, tx, p.DeviceID, &p.Parameters[i]); err != nil {
			return err
		}
	}
	for seq, assembly := range p.Assemblies {
		if err := insertAssembly(ctx, tx, p.DeviceID, seq, &assembly); err != nil {
			return err
		}
	}
	for seq, menu := range p.Menus {
		if err := insertMenu(ctx, tx, p.DeviceID, seq, &menu); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

func insertParameter(ctx context.Context, tx *sql.Tx, deviceID string, param *profile.Parameter) error {
	var (
		conditionPresent  = 0
		conditionVariable any
		conditionValue    any
		datatypePresent   = 0
		datatypeKind      any
		datatypeBitLength any
		datatypeEncoding  any
	)
	if condition, ok := param.Condition.Value(); ok {
		conditionPresent = 1
		conditionVariable = condition.VariableRef
		conditionValue = condition.Value
	}
	if detail, ok := param.Datatype.Value(); ok {
		datatypePresent = 1
		datatypeKind = detail.Kind
		datatypeBitLength = optInt(detail.BitLength)
		datatypeEncoding = optString(detail.Encoding)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO parameters (
            device_id, idx, name, data_type, access, access_is_schema_default,
            default_value, unit, description, dynamic, order_index,
            condition_present, condition_variable, condition_value,
            datatype_present, datatype_kind, datatype_bit_length, datatype_encoding
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deviceID,
		param.Index,
		param.Name,
		param.DataType,
		optString(param.Access),
		boolToInt(param.AccessIsSchemaDefault),
		optString(param.DefaultValue),
		optString(param.Unit),
		optString(param.Description),
		optBool(param.Dynamic),
		optInt(param.OrderIndex),
		conditionPresent,
		conditionVariable,
		conditionValue,
		datatypePresent,
		datatypeKind,
		datatypeBitLength,
		datatypeEncoding,
	); err != nil {
		return fmt.Errorf("insert parameter %d: %w", param.Index, err)
	}

	for _, item := range param.RecordItems {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO record_items (
                device_id, parameter_index, subindex, name, data_type,
                bit_offset, bit_length, order_index
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			deviceID,
			param.Index,
			item.Subindex,
			item.Name,
			item.DataType,
			optInt(item.BitOffset),
			optInt(item.BitLength),
			optInt(item.OrderIndex),
		); err != nil {
			return fmt.Errorf("insert record item %d/%d: %w", param.Index, item.Subindex, err)
		}
		if err := insertSingleValues(ctx, tx, deviceID, param.Index, &item.Subindex, item.SingleValues); err != nil {
			return err
		}
	}

	return insertSingleValues(ctx, tx, deviceID, param.Index, nil, param.SingleValues)
}

func insertSingleValues(ctx context.Context, tx *sql.Tx, deviceID string, parameterIndex int, recordSubindex *int, values []profile.SingleValue) error {
	var subindex any
	if recordSubindex != nil {
		subindex = *recordSubindex
	}
	for seq, value := range values {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO single_values (
                device_id, parameter_index, record_subindex, seq, value, name, order_index
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			deviceID,
			parameterIndex,
			subindex,
			seq,
			value.Value,
			optString(value.Name),
			optInt(value.OrderIndex),
		); err != nil {
			return fmt.Errorf("insert single value %q: %w", value.Value, err)
		}
	}
	return nil
}

func insertAssembly(ctx context.Context, tx *sql.Tx, deviceID string, seq int, assembly *profile.Assembly) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO assemblies (device_id, id, name, order_index, seq) VALUES (?, ?, ?, ?, ?)`,
		deviceID,
		assembly.ID,
		optString(assembly.Name),
		optInt(assembly.OrderIndex),
		seq,
	); err != nil {
		return fmt.Errorf("insert assembly %s: %w", assembly.ID, err)
	}
	for _, slot := range assembly.Slots {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO assembly_slots (device_id, assembly_id, position, parameter_index)
             VALUES (?, ?, ?, ?)`,
			deviceID,
			assembly.ID,
			slot.Position,
			slot.ParameterIndex,
		); err != nil {
			return fmt.Errorf("insert assembly slot %s/%d: %w", assembly.ID, slot.Position, err)
		}
	}
	return nil
}

func insertMenu(ctx context.Context, tx *sql.Tx, deviceID string, seq int, menu *profile.Menu) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO menus (device_id, id, name, order_index, seq) VALUES (?, ?, ?, ?, ?)`,
		deviceID,
		menu.ID,
		optString(menu.Name),
		optInt(menu.OrderIndex),
		seq,
	); err != nil {
		return fmt.Errorf("insert menu %s: %w", menu.ID, err)
	}
	for itemSeq, item := range menu.Items {
		var (
			parameterIndex any
			subindex       any
			accessOverride any
			submenuID      any
		)
		switch ref := item.(type) {
		case profile.ParameterRef:
			parameterIndex = ref.ParameterIndex
			accessOverride = optString(ref.AccessOverride)
		case profile.RecordRef:
			parameterIndex = ref.ParameterIndex
			subindex = ref.Subindex
		case profile.SubmenuRef:
			submenuID = ref.MenuID
		default:
			return fmt.Errorf("menu %s holds unknown item type %T", menu.ID, item)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO menu_items (
                device_id, menu_id, seq, kind, parameter_index, subindex, access_override, submenu_id
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			deviceID,
			menu.ID,
			itemSeq,
			string(item.Kind()),
			parameterIndex,
			subindex,
			accessOverride,
			submenuID,
		); err != nil {
			return fmt.Errorf("insert menu item %s/%d: %w", menu.ID, itemSeq, err)
		}
	}
	return nil
}

func optString(o profile.Option[string]) any {
	if v, ok := o.Value(); ok {
		return v
	}
	return nil
}

func optInt(o profile.Option[int]) any {
	if v, ok := o.Value(); ok {
		return v
	}
	return nil
}

func optBool(o profile.Option[bool]) any {
	if v, ok := o.Value(); ok {
		return boolToInt(v)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func stringOpt(ns sql.NullString) profile.Option[string] {
	if !ns.Valid {
		return profile.None[string]()
	}
	return profile.Some(ns.String)
}

func intOpt(ni sql.NullInt64) profile.Option[int] {
	if !ni.Valid {
		return profile.None[int]()
	}
	return profile.Some(int(ni.Int64))
}

func boolOpt(ni sql.NullInt64) profile.Option[bool] {
	if !ni.Valid {
		return profile.None[bool]()
	}
	return profile.Some(ni.Int64 != 0)
}
