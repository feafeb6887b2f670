package profile

import "fmt"

// MenuItemKind discriminates the concrete menu item shapes.
type MenuItemKind string

const (
	KindParameterRef MenuItemKind = "parameter_ref"
	KindRecordRef    MenuItemKind = "record_ref"
	KindSubmenuRef   MenuItemKind = "submenu_ref"
)

// MenuItem is the tagged union of menu entry shapes. Upstream parsers pass ad
// hoc type tags; those are decoded into one of the concrete cases exactly once
// at the storage boundary so nothing downstream branches on loose strings.
type MenuItem interface {
	Kind() MenuItemKind
}

// ParameterRef shows a parameter in a menu, optionally overriding its access
// mode for display.
type ParameterRef struct {
	ParameterIndex int
	AccessOverride Option[string]
}

func (ParameterRef) Kind() MenuItemKind { return KindParameterRef }

// RecordRef shows a single record item of a record-typed parameter.
type RecordRef struct {
	ParameterIndex int
	Subindex       int
}

func (RecordRef) Kind() MenuItemKind { return KindRecordRef }

// SubmenuRef nests another menu.
type SubmenuRef struct {
	MenuID string
}

func (SubmenuRef) Kind() MenuItemKind { return KindSubmenuRef }

// ParseMenuItemKind converts a stored discriminator into a known kind.
func ParseMenuItemKind(value string) (MenuItemKind, error) {
	switch MenuItemKind(value) {
	case KindParameterRef, KindRecordRef, KindSubmenuRef:
		return MenuItemKind(value), nil
	}
	return "", fmt.Errorf("unknown menu item kind %q", value)
}
