package canonicalize_test

import (
	"errors"
	"testing"

	"retrace/internal/canonical"
	"retrace/internal/canonicalize"
)

const sampleDescriptor = `<?xml version="1.0" encoding="UTF-8"?>
<DeviceProfile xmlns="urn:vendor:device" deviceId="dev-1" vendorId="0x01AB">
  <DeviceIdentity vendorName="Acme Automation" productName="Flow Sensor FS-10"/>
  <ParameterCollection>
    <Parameter index="1" name="Setpoint" dataType="UInt16" dynamic="false">
      <SingleValue value="0">Off</SingleValue>
      <SingleValue value="100">Full</SingleValue>
    </Parameter>
    <Parameter index="2" name="Mode" dataType="UInt8"/>
  </ParameterCollection>
</DeviceProfile>`

func TestCanonicalizeXMLShape(t *testing.T) {
	root, err := canonicalize.Canonicalize(canonicalize.DialectXML, []byte(sampleDescriptor))
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}

	if root.Tag != "DeviceProfile" {
		t.Fatalf("root tag = %q", root.Tag)
	}
	if root.AttrValue("deviceId") != "dev-1" {
		t.Fatalf("deviceId = %q", root.AttrValue("deviceId"))
	}
	if _, ok := root.Attr("xmlns"); ok {
		t.Fatal("xmlns declarations must be dropped")
	}

	collection := root.Children[1]
	if collection.Tag != "ParameterCollection" || len(collection.Children) != 2 {
		t.Fatalf("unexpected collection shape: %q with %d children", collection.Tag, len(collection.Children))
	}

	param := collection.Children[0]
	if got, ok := param.Attr("dynamic"); !ok || got.Value != "false" {
		t.Fatalf("expected explicit dynamic=false, got %+v (present=%v)", got, ok)
	}
	if param.Children[0].Text != "Off" {
		t.Fatalf("single value text = %q", param.Children[0].Text)
	}
	if param.Children[1].Path != "DeviceProfile.ParameterCollection.Parameter[0].SingleValue[1]" {
		t.Fatalf("path = %q", param.Children[1].Path)
	}
}

func TestCanonicalizeXMLAttributeOrderPreserved(t *testing.T) {
	root, err := canonicalize.Canonicalize(canonicalize.DialectXML, []byte(`<P b="2" a="1" c="3"/>`))
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	want := []string{"b", "a", "c"}
	for i, attr := range root.Attrs {
		if attr.Name != want[i] {
			t.Fatalf("attr %d = %q, want %q", i, attr.Name, want[i])
		}
	}
}

func TestCanonicalizeXMLMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"random bytes", "\x01\x02\x03"},
		{"empty", "   "},
		{"unclosed element", `<DeviceProfile><Parameter index="1">`},
		{"multiple roots", `<A/><B/>`},
		{"text outside root", `<A/>junk`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root, err := canonicalize.Canonicalize(canonicalize.DialectXML, []byte(tc.input))
			if !errors.Is(err, canonicalize.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if root != nil {
				t.Fatal("malformed input must never yield a partial tree")
			}
		})
	}
}

func TestCanonicalizeXMLEquivalentShapesAcrossRuns(t *testing.T) {
	first, err := canonicalize.Canonicalize(canonicalize.DialectXML, []byte(sampleDescriptor))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := canonicalize.Canonicalize(canonicalize.DialectXML, []byte(sampleDescriptor))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	assertSameTree(t, first, second)
}

func assertSameTree(t *testing.T, a, b *canonical.Node) {
	t.Helper()
	if a.Tag != b.Tag || a.Text != b.Text || a.Path != b.Path || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		t.Fatalf("trees diverge at %q vs %q", a.Path, b.Path)
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			t.Fatalf("attrs diverge at %q: %+v vs %+v", a.Path, a.Attrs[i], b.Attrs[i])
		}
	}
	for i := range a.Children {
		assertSameTree(t, a.Children[i], b.Children[i])
	}
}
