package canonical_test

import (
	"testing"

	"retrace/internal/canonical"
)

func TestAttrAbsenceIsDistinctFromFalse(t *testing.T) {
	node := canonical.NewNode("Parameter")
	node.SetAttr("dynamic", "false")

	attr, ok := node.Attr("dynamic")
	if !ok {
		t.Fatal("expected dynamic attribute to exist")
	}
	if attr.Value != "false" {
		t.Fatalf("expected explicit false, got %q", attr.Value)
	}

	if _, ok := node.Attr("enabled"); ok {
		t.Fatal("absent attribute must not have an entry")
	}
}

func TestSetAttrPreservesOrder(t *testing.T) {
	node := canonical.NewNode("Parameter")
	node.SetAttr("index", "1")
	node.SetAttr("name", "Setpoint")
	node.SetAttr("index", "2")

	if len(node.Attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(node.Attrs))
	}
	if node.Attrs[0].Name != "index" || node.Attrs[0].Value != "2" {
		t.Fatalf("expected index replaced in place, got %+v", node.Attrs[0])
	}
	if node.Attrs[1].Name != "name" {
		t.Fatalf("expected name second, got %+v", node.Attrs[1])
	}
}

func TestSubtreeCounters(t *testing.T) {
	root := canonical.NewNode("DeviceProfile")
	root.SetAttr("deviceId", "dev-1")
	param := root.AppendChild(canonical.NewNode("Parameter"))
	param.SetAttr("index", "1")
	param.SetAttr("name", "Setpoint")
	value := param.AppendChild(canonical.NewNode("SingleValue"))
	value.Text = "42"

	if got := root.ElementCount(); got != 3 {
		t.Fatalf("ElementCount = %d, want 3", got)
	}
	if got := root.AttributeCount(); got != 3 {
		t.Fatalf("AttributeCount = %d, want 3", got)
	}
	if got := root.ValueBearingCount(); got != 1 {
		t.Fatalf("ValueBearingCount = %d, want 1", got)
	}
}

func TestAssignPathsIndexesRepeatedSiblings(t *testing.T) {
	root := canonical.NewNode("DeviceProfile")
	first := root.AppendChild(canonical.NewNode("Parameter"))
	second := root.AppendChild(canonical.NewNode("Parameter"))
	only := root.AppendChild(canonical.NewNode("Assembly"))
	nested := second.AppendChild(canonical.NewNode("RecordItem"))

	root.AssignPaths()

	if root.Path != "DeviceProfile" {
		t.Fatalf("root path = %q", root.Path)
	}
	if first.Path != "DeviceProfile.Parameter[0]" {
		t.Fatalf("first path = %q", first.Path)
	}
	if second.Path != "DeviceProfile.Parameter[1]" {
		t.Fatalf("second path = %q", second.Path)
	}
	if only.Path != "DeviceProfile.Assembly" {
		t.Fatalf("unique sibling must not carry an index, got %q", only.Path)
	}
	if nested.Path != "DeviceProfile.Parameter[1].RecordItem" {
		t.Fatalf("nested path = %q", nested.Path)
	}
}
