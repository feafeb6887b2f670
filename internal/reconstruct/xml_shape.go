package reconstruct

import (
	"strconv"

	"retrace/internal/canonical"
	"retrace/internal/profile"
)

// shapeXML emits the descriptor XML shape: a DeviceProfile root, a
// DeviceIdentity element when any identity field was recorded, and collection
// wrapper elements mirroring the schema the originals follow.
func shapeXML(p *profile.DeviceProfile) *canonical.Node {
	root := canonical.NewNode("DeviceProfile")
	root.SetAttr("deviceId", p.DeviceID)
	if vendorID, ok := p.VendorID.Value(); ok {
		root.SetAttr("vendorId", vendorID)
	}

	if p.VendorName.Present() || p.ProductName.Present() || p.Revision.Present() {
		identity := root.AppendChild(canonical.NewNode("DeviceIdentity"))
		if v, ok := p.VendorName.Value(); ok {
			identity.SetAttr("vendorName", v)
		}
		if v, ok := p.ProductName.Value(); ok {
			identity.SetAttr("productName", v)
		}
		if v, ok := p.Revision.Value(); ok {
			identity.SetAttr("revision", v)
		}
	}

	if len(p.Parameters) > 0 {
		collection := root.AppendChild(canonical.NewNode("ParameterCollection"))
		order := orderedIndices(len(p.Parameters),
			func(i int) profile.Option[int] { return p.Parameters[i].OrderIndex },
			func(a, b int) bool { return p.Parameters[a].Index < p.Parameters[b].Index })
		for _, i := range order {
			collection.AppendChild(xmlParameter(&p.Parameters[i]))
		}
	}

	if len(p.Assemblies) > 0 {
		collection := root.AppendChild(canonical.NewNode("AssemblyCollection"))
		order := orderedIndices(len(p.Assemblies),
			func(i int) profile.Option[int] { return p.Assemblies[i].OrderIndex },
			func(a, b int) bool { return p.Assemblies[a].ID < p.Assemblies[b].ID })
		for _, i := range order {
			collection.AppendChild(xmlAssembly(&p.Assemblies[i]))
		}
	}

	if len(p.Menus) > 0 {
		collection := root.AppendChild(canonical.NewNode("MenuCollection"))
		order := orderedIndices(len(p.Menus),
			func(i int) profile.Option[int] { return p.Menus[i].OrderIndex },
			func(a, b int) bool { return p.Menus[a].ID < p.Menus[b].ID })
		for _, i := range order {
			collection.AppendChild(xmlMenu(&p.Menus[i]))
		}
	}

	return root
}

func xmlParameter(param *profile.Parameter) *canonical.Node {
	node := canonical.NewNode("Parameter")
	node.SetAttr("index", strconv.Itoa(param.Index))
	node.SetAttr("name", param.Name)
	node.SetAttr("dataType", param.DataType)
	if access, ok := param.Access.Value(); ok {
		if param.AccessIsSchemaDefault {
			node.SetDefaultAttr("access", access)
		} else {
			node.SetAttr("access", access)
		}
	}
	if v, ok := param.DefaultValue.Value(); ok {
		node.SetAttr("defaultValue", v)
	}
	if v, ok := param.Unit.Value(); ok {
		node.SetAttr("unit", v)
	}
	if v, ok := param.Description.Value(); ok {
		node.SetAttr("description", v)
	}
	if dynamic, ok := param.Dynamic.Value(); ok {
		node.SetAttr("dynamic", boolLabel(dynamic, "true", "false"))
	}

	if condition, ok := param.Condition.Value(); ok {
		child := node.AppendChild(canonical.NewNode("Condition"))
		child.SetAttr("variableRef", condition.VariableRef)
		child.SetAttr("value", condition.Value)
	}
	if detail, ok := param.Datatype.Value(); ok {
		child := node.AppendChild(canonical.NewNode("Datatype"))
		child.SetAttr("type", detail.Kind)
		if v, ok := detail.BitLength.Value(); ok {
			child.SetAttr("bitLength", strconv.Itoa(v))
		}
		if v, ok := detail.Encoding.Value(); ok {
			child.SetAttr("encoding", v)
		}
	}

	recordOrder := orderedIndices(len(param.RecordItems),
		func(i int) profile.Option[int] { return param.RecordItems[i].OrderIndex },
		func(a, b int) bool { return param.RecordItems[a].Subindex < param.RecordItems[b].Subindex })
	for _, i := range recordOrder {
		node.AppendChild(xmlRecordItem(&param.RecordItems[i]))
	}

	appendXMLSingleValues(node, param.SingleValues)
	return node
}

func xmlRecordItem(item *profile.RecordItem) *canonical.Node {
	node := canonical.NewNode("RecordItem")
	node.SetAttr("subindex", strconv.Itoa(item.Subindex))
	node.SetAttr("name", item.Name)
	node.SetAttr("dataType", item.DataType)
	if v, ok := item.BitOffset.Value(); ok {
		node.SetAttr("bitOffset", strconv.Itoa(v))
	}
	if v, ok := item.BitLength.Value(); ok {
		node.SetAttr("bitLength", strconv.Itoa(v))
	}
	appendXMLSingleValues(node, item.SingleValues)
	return node
}

func appendXMLSingleValues(parent *canonical.Node, values []profile.SingleValue) {
	order := orderedIndices(len(values),
		func(i int) profile.Option[int] { return values[i].OrderIndex },
		func(a, b int) bool { return values[a].Value < values[b].Value })
	for _, i := range order {
		node := parent.AppendChild(canonical.NewNode("SingleValue"))
		node.SetAttr("value", values[i].Value)
		if name, ok := values[i].Name.Value(); ok {
			node.Text = name
		}
	}
}

func xmlAssembly(assembly *profile.Assembly) *canonical.Node {
	node := canonical.NewNode("Assembly")
	node.SetAttr("id", assembly.ID)
	if name, ok := assembly.Name.Value(); ok {
		node.SetAttr("name", name)
	}
	slots := append([]profile.AssemblySlot(nil), assembly.Slots...)
	order := orderedIndices(len(slots),
		func(int) profile.Option[int] { return profile.None[int]() },
		func(a, b int) bool { return slots[a].Position < slots[b].Position })
	for _, i := range order {
		child := node.AppendChild(canonical.NewNode("Slot"))
		child.SetAttr("position", strconv.Itoa(slots[i].Position))
		child.SetAttr("parameterIndex", strconv.Itoa(slots[i].ParameterIndex))
	}
	return node
}

func xmlMenu(menu *profile.Menu) *canonical.Node {
	node := canonical.NewNode("Menu")
	node.SetAttr("id", menu.ID)
	if name, ok := menu.Name.Value(); ok {
		node.SetAttr("name", name)
	}
	// Menu items keep their stored sequence: display order is semantic.
	for _, item := range menu.Items {
		switch ref := item.(type) {
		case profile.ParameterRef:
			child := node.AppendChild(canonical.NewNode("ParameterRef"))
			child.SetAttr("parameterIndex", strconv.Itoa(ref.ParameterIndex))
			if access, ok := ref.AccessOverride.Value(); ok {
				child.SetAttr("access", access)
			}
		case profile.RecordRef:
			child := node.AppendChild(canonical.NewNode("RecordRef"))
			child.SetAttr("parameterIndex", strconv.Itoa(ref.ParameterIndex))
			child.SetAttr("subindex", strconv.Itoa(ref.Subindex))
		case profile.SubmenuRef:
			child := node.AppendChild(canonical.NewNode("SubmenuRef"))
			child.SetAttr("menuId", ref.MenuID)
		}
	}
	return node
}
