package export

import (
	"matseed/internal/catalog"
	"matseed/internal/enrich"
	"matseed/internal/normalize"
	"matseed/internal/value"
)

// Document type tags.
const (
	TypeMaterial          = "material"
	TypeFinish            = "finish"
	TypeFinishSet         = "finishSet"
	TypeMaterialFinish    = "materialFinish"
	TypeMaterialFinishSet = "materialFinishSet"
	TypeLifecycleProfile  = "lifecycleProfile"
)

func optionalID(id string) value.Value {
	if id == "" {
		return value.Null{}
	}
	return value.String(id)
}

// LifecycleProfileID is the id of a material's lifecycle profile document.
func LifecycleProfileID(materialID string) string { return "lifecycle:" + materialID }

// materialDocument keeps every authored field in order and appends the
// derived ones. Derived keys that collide with authored ones keep the
// authored position and take the derived value.
func materialDocument(index int, m catalog.MaterialRecord, refs normalize.Refs, f enrich.Fields) *value.Object {
	doc := m.Fields.Clone()
	doc.Set("pk", value.String(m.Category))
	doc.Set("type", value.String(TypeMaterial))
	doc.Set("sortOrder", value.Number(index))
	doc.Set("finishIds", value.Strings(refs.FinishIDs))
	doc.Set("finishSetIds", value.Strings(refs.FinishSetIDs))
	doc.Set("primaryFinishId", optionalID(refs.PrimaryFinishID))
	doc.Set("primaryFinishSetId", optionalID(refs.PrimaryFinishSetID))
	if f.Lifecycle != nil {
		doc.Set("lifecycleProfileId", value.String(LifecycleProfileID(m.ID)))
	} else {
		doc.Set("lifecycleProfileId", value.Null{})
	}
	doc.Set("insight", orNull(f.Insight))
	doc.Set("actions", orEmpty(f.Actions))
	doc.Set("health", orNull(f.Health))
	doc.Set("risks", orEmpty(f.Risks))
	doc.Set("serviceLife", orNull(f.ServiceLife))
	return doc
}

func orNull(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	return v
}

func orEmpty(v value.Value) value.Value {
	if v == nil {
		return value.Array{}
	}
	return v
}

func finishDocument(f normalize.Finish) *value.Object {
	doc := value.NewObject()
	doc.Set("id", value.String(f.ID))
	doc.Set("pk", value.String(TypeFinish))
	doc.Set("type", value.String(TypeFinish))
	doc.Set("label", value.String(f.Label))
	doc.Set("normalizedLabel", value.String(f.NormalizedLabel))
	return doc
}

func finishSetDocument(s normalize.FinishSet) *value.Object {
	doc := value.NewObject()
	doc.Set("id", value.String(s.ID))
	doc.Set("pk", value.String(s.Type))
	doc.Set("docType", value.String(TypeFinishSet))
	doc.Set("type", value.String(s.Type))
	doc.Set("options", normalize.OptionsValue(s.Options))
	doc.Set("signature", value.String(s.Signature))
	return doc
}

func finishLinkDocument(l normalize.FinishLink) *value.Object {
	doc := value.NewObject()
	doc.Set("id", value.String(l.ID))
	doc.Set("pk", value.String(l.MaterialID))
	doc.Set("type", value.String(TypeMaterialFinish))
	doc.Set("materialId", value.String(l.MaterialID))
	doc.Set("finishId", value.String(l.FinishID))
	doc.Set("isPrimary", value.Bool(l.IsPrimary))
	doc.Set("sortOrder", value.Number(l.SortOrder))
	return doc
}

func finishSetLinkDocument(l normalize.FinishSetLink) *value.Object {
	doc := value.NewObject()
	doc.Set("id", value.String(l.ID))
	doc.Set("pk", value.String(l.MaterialID))
	doc.Set("type", value.String(TypeMaterialFinishSet))
	doc.Set("materialId", value.String(l.MaterialID))
	doc.Set("finishSetId", value.String(l.FinishSetID))
	doc.Set("isDefault", value.Bool(l.IsDefault))
	doc.Set("sortOrder", value.Number(l.SortOrder))
	return doc
}

func lifecycleDocument(materialID string, f enrich.Fields) *value.Object {
	p := f.Lifecycle
	doc := value.NewObject()
	doc.Set("id", value.String(LifecycleProfileID(materialID)))
	doc.Set("pk", value.String(materialID))
	doc.Set("type", value.String(TypeLifecycleProfile))
	doc.Set("materialId", value.String(materialID))
	doc.Set("source", value.String(p.Source))
	if p.Archetype != "" {
		doc.Set("archetype", value.String(p.Archetype))
	}
	doc.Set("stages", p.StagesValue())
	return doc
}
