package reconstruct

import (
	"strconv"

	"retrace/internal/canonical"
	"retrace/internal/canonicalize"
	"retrace/internal/profile"
)

// shapeKeyword emits the legacy section/keyword shape: a synthetic root
// matching the canonicalizer's, a Device section, and flat repeated sections
// for parameters, assemblies, and menus. The legacy dialect has no nested
// variant elements, so conditions and datatype details flatten into keywords
// of their parameter section.
func shapeKeyword(p *profile.DeviceProfile) *canonical.Node {
	root := canonical.NewNode(canonicalize.KeywordRootTag)

	device := root.AppendChild(canonical.NewNode("Device"))
	if v, ok := p.VendorName.Value(); ok {
		device.SetAttr("Vendor_Name", v)
	}
	if v, ok := p.VendorID.Value(); ok {
		device.SetAttr("Vendor_ID", v)
	}
	device.SetAttr("Device_ID", p.DeviceID)
	if v, ok := p.ProductName.Value(); ok {
		device.SetAttr("Product_Name", v)
	}
	if v, ok := p.Revision.Value(); ok {
		device.SetAttr("Revision", v)
	}

	order := orderedIndices(len(p.Parameters),
		func(i int) profile.Option[int] { return p.Parameters[i].OrderIndex },
		func(a, b int) bool { return p.Parameters[a].Index < p.Parameters[b].Index })
	for _, i := range order {
		root.AppendChild(keywordParameter(&p.Parameters[i]))
	}

	assemblyOrder := orderedIndices(len(p.Assemblies),
		func(i int) profile.Option[int] { return p.Assemblies[i].OrderIndex },
		func(a, b int) bool { return p.Assemblies[a].ID < p.Assemblies[b].ID })
	for _, i := range assemblyOrder {
		root.AppendChild(keywordAssembly(&p.Assemblies[i]))
	}

	menuOrder := orderedIndices(len(p.Menus),
		func(i int) profile.Option[int] { return p.Menus[i].OrderIndex },
		func(a, b int) bool { return p.Menus[a].ID < p.Menus[b].ID })
	for _, i := range menuOrder {
		root.AppendChild(keywordMenu(&p.Menus[i]))
	}

	return root
}

func keywordParameter(param *profile.Parameter) *canonical.Node {
	node := canonical.NewNode("Parameter")
	node.SetAttr("Index", strconv.Itoa(param.Index))
	node.SetAttr("Name", param.Name)
	node.SetAttr("Data_Type", param.DataType)
	if access, ok := param.Access.Value(); ok {
		if param.AccessIsSchemaDefault {
			node.SetDefaultAttr("Access", access)
		} else {
			node.SetAttr("Access", access)
		}
	}
	if v, ok := param.DefaultValue.Value(); ok {
		node.SetAttr("Default_Value", v)
	}
	if v, ok := param.Unit.Value(); ok {
		node.SetAttr("Unit", v)
	}
	if v, ok := param.Description.Value(); ok {
		node.SetAttr("Description", v)
	}
	if dynamic, ok := param.Dynamic.Value(); ok {
		node.SetAttr("Dynamic", boolLabel(dynamic, "1", "0"))
	}
	if condition, ok := param.Condition.Value(); ok {
		node.SetAttr("Condition_Variable", condition.VariableRef)
		node.SetAttr("Condition_Value", condition.Value)
	}
	if detail, ok := param.Datatype.Value(); ok {
		node.SetAttr("Datatype", detail.Kind)
		if v, ok := detail.BitLength.Value(); ok {
			node.SetAttr("Datatype_Bit_Length", strconv.Itoa(v))
		}
		if v, ok := detail.Encoding.Value(); ok {
			node.SetAttr("Datatype_Encoding", v)
		}
	}

	recordOrder := orderedIndices(len(param.RecordItems),
		func(i int) profile.Option[int] { return param.RecordItems[i].OrderIndex },
		func(a, b int) bool { return param.RecordItems[a].Subindex < param.RecordItems[b].Subindex })
	for _, i := range recordOrder {
		node.AppendChild(keywordRecordItem(&param.RecordItems[i]))
	}

	appendKeywordValues(node, param.SingleValues)
	return node
}

func keywordRecordItem(item *profile.RecordItem) *canonical.Node {
	node := canonical.NewNode("Record")
	node.SetAttr("Subindex", strconv.Itoa(item.Subindex))
	node.SetAttr("Name", item.Name)
	node.SetAttr("Data_Type", item.DataType)
	if v, ok := item.BitOffset.Value(); ok {
		node.SetAttr("Bit_Offset", strconv.Itoa(v))
	}
	if v, ok := item.BitLength.Value(); ok {
		node.SetAttr("Bit_Length", strconv.Itoa(v))
	}
	appendKeywordValues(node, item.SingleValues)
	return node
}

func appendKeywordValues(parent *canonical.Node, values []profile.SingleValue) {
	order := orderedIndices(len(values),
		func(i int) profile.Option[int] { return values[i].OrderIndex },
		func(a, b int) bool { return values[a].Value < values[b].Value })
	for _, i := range order {
		node := parent.AppendChild(canonical.NewNode("Value"))
		node.SetAttr("Value", values[i].Value)
		if name, ok := values[i].Name.Value(); ok {
			node.SetAttr("Name", name)
		}
	}
}

func keywordAssembly(assembly *profile.Assembly) *canonical.Node {
	node := canonical.NewNode("Assembly")
	node.SetAttr("ID", assembly.ID)
	if name, ok := assembly.Name.Value(); ok {
		node.SetAttr("Name", name)
	}
	slots := append([]profile.AssemblySlot(nil), assembly.Slots...)
	order := orderedIndices(len(slots),
		func(int) profile.Option[int] { return profile.None[int]() },
		func(a, b int) bool { return slots[a].Position < slots[b].Position })
	for _, i := range order {
		child := node.AppendChild(canonical.NewNode("Slot"))
		child.SetAttr("Position", strconv.Itoa(slots[i].Position))
		child.SetAttr("Parameter_Index", strconv.Itoa(slots[i].ParameterIndex))
	}
	return node
}

func keywordMenu(menu *profile.Menu) *canonical.Node {
	node := canonical.NewNode("Menu")
	node.SetAttr("ID", menu.ID)
	if name, ok := menu.Name.Value(); ok {
		node.SetAttr("Name", name)
	}
	for _, item := range menu.Items {
		child := node.AppendChild(canonical.NewNode("Item"))
		switch ref := item.(type) {
		case profile.ParameterRef:
			child.SetAttr("Item_Type", "parameter")
			child.SetAttr("Parameter_Index", strconv.Itoa(ref.ParameterIndex))
			if access, ok := ref.AccessOverride.Value(); ok {
				child.SetAttr("Access", access)
			}
		case profile.RecordRef:
			child.SetAttr("Item_Type", "record")
			child.SetAttr("Parameter_Index", strconv.Itoa(ref.ParameterIndex))
			child.SetAttr("Subindex", strconv.Itoa(ref.Subindex))
		case profile.SubmenuRef:
			child.SetAttr("Item_Type", "submenu")
			child.SetAttr("Menu_ID", ref.MenuID)
		}
	}
	return node
}
