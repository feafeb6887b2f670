package diff_test

import (
	"reflect"
	"testing"

	"retrace/internal/canonical"
	"retrace/internal/canonicalize"
	"retrace/internal/diff"
)

func mustCanonicalize(t *testing.T, dialect canonicalize.Dialect, input string) *canonical.Node {
	t.Helper()
	root, err := canonicalize.Canonicalize(dialect, []byte(input))
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	return root
}

func TestDiffIdentity(t *testing.T) {
	input := `<DeviceProfile deviceId="dev-1">
  <ParameterCollection>
    <Parameter index="1" name="Setpoint" dataType="UInt16" dynamic="false">
      <SingleValue value="0">Off</SingleValue>
    </Parameter>
  </ParameterCollection>
</DeviceProfile>`
	original := mustCanonicalize(t, canonicalize.DialectXML, input)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, input)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 0 {
		t.Fatalf("identical trees must diff clean, got %v", found)
	}
}

func TestDiffAbsenceVersusExplicitFalse(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<Parameter index="1" name="A" dataType="Bool"/>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<Parameter index="1" name="A" dataType="Bool" dynamic="false"/>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 1 {
		t.Fatalf("expected exactly one discrepancy, got %v", found)
	}
	if found[0].Kind != diff.ExtraAttribute {
		t.Fatalf("emitting false for an absent attribute must be ExtraAttribute, got %s", found[0].Kind)
	}
	if found[0].Location != "Parameter" {
		t.Fatalf("location = %q", found[0].Location)
	}
}

func TestDiffMissingAndIncorrectAttributes(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<Parameter index="1" name="Setpoint" unit="µm" enabled="false"/>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<Parameter index="1" name="SetPoint"/>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 3 {
		t.Fatalf("expected 3 discrepancies, got %v", found)
	}
	if found[0].Kind != diff.IncorrectAttribute || found[0].Severity != diff.SeverityMajor {
		t.Fatalf("name mismatch: %+v", found[0])
	}
	if found[1].Kind != diff.MissingAttribute || found[1].Severity != diff.SeverityMinor {
		t.Fatalf("unit is a minor descriptive field: %+v", found[1])
	}
	if found[2].Kind != diff.MissingAttribute {
		t.Fatalf("explicitly-false attribute omitted must be MissingAttribute: %+v", found[2])
	}
}

func TestDiffKeyPairingSurvivesReordering(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<P>
  <Parameter index="1" name="A" dataType="Bool"/>
  <Parameter index="2" name="B" dataType="Bool"/>
</P>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<P>
  <Parameter index="2" name="B" dataType="Bool"/>
  <Parameter index="1" name="A" dataType="Bool"/>
</P>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 0 {
		t.Fatalf("key-paired reordering must diff clean, got %v", found)
	}
}

func TestDiffMissingAndExtraElements(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<P>
  <Parameter index="1" name="A" dataType="Bool"/>
  <Parameter index="2" name="B" dataType="Bool"/>
</P>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<P>
  <Parameter index="2" name="B" dataType="Bool"/>
  <Parameter index="3" name="C" dataType="Bool"/>
</P>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 2 {
		t.Fatalf("expected missing + extra, got %v", found)
	}
	if found[0].Kind != diff.MissingElement || found[0].Location != "P.Parameter[0]" {
		t.Fatalf("missing: %+v", found[0])
	}
	if found[1].Kind != diff.ExtraElement || found[1].Location != "P.Parameter[1]" {
		t.Fatalf("extra element must locate into the reconstruction: %+v", found[1])
	}
}

func TestDiffPositionalPairingByDefault(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<P><Step n="a"/><Step n="b"/></P>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<P><Step n="b"/><Step n="a"/></P>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	// Unknown tags pair positionally, so the swap shows up as value edits.
	if len(found) != 2 {
		t.Fatalf("expected 2 discrepancies, got %v", found)
	}
	for _, d := range found {
		if d.Kind != diff.IncorrectAttribute {
			t.Fatalf("positional swap must report IncorrectAttribute, got %+v", d)
		}
	}
}

func TestDiffTextMismatch(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<P><SingleValue value="0">Off</SingleValue></P>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<P><SingleValue value="0">On</SingleValue></P>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 1 || found[0].Kind != diff.ValueMismatch {
		t.Fatalf("expected one ValueMismatch, got %v", found)
	}
}

func TestDiffRootTagMismatch(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML, `<A/>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectXML, `<B/>`)

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) != 2 {
		t.Fatalf("expected missing + extra for root mismatch, got %v", found)
	}
}

func TestDiffDeterministicAcrossRuns(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectKeyword, `[Device]
Device_ID = dev-1
[Parameter.1]
Index = 1
Name = A
[Parameter.2]
Index = 2
Name = B
Unit = mm
`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectKeyword, `[Device]
Device_ID = dev-1
[Parameter.1]
Index = 2
Name = B
`)

	differ := diff.New(diff.DefaultPolicy())
	first := differ.Diff(original, reconstructed)
	second := differ.Diff(original, reconstructed)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("diff output must be identical across runs:\n%v\n%v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("expected discrepancies in this fixture")
	}
}

func TestDiffNeverPanicsOnDissimilarTrees(t *testing.T) {
	original := mustCanonicalize(t, canonicalize.DialectXML,
		`<DeviceProfile deviceId="x"><A><B c="1"/></A><A><B c="2"/></A></DeviceProfile>`)
	reconstructed := mustCanonicalize(t, canonicalize.DialectKeyword, "[Device]\nDevice_ID = y\n")

	found := diff.New(diff.DefaultPolicy()).Diff(original, reconstructed)
	if len(found) == 0 {
		t.Fatal("entirely dissimilar trees must produce discrepancies, not silence")
	}
}
