package vsd

import "fmt"

// ChunkType is the low byte of a pointer's type tag.
type ChunkType uint8

// Chunk types that drive traversal. The catalog is not exhaustive;
// unknown types are carried through as CategoryNone.
const (
	TypeForeignData  ChunkType = 0x0c
	TypeOLEList      ChunkType = 0x0d
	TypeText         ChunkType = 0x0e
	TypeTrailer      ChunkType = 0x14
	TypePage         ChunkType = 0x15
	TypeColors       ChunkType = 0x16
	TypeFontList     ChunkType = 0x18
	TypeFontIX       ChunkType = 0x19
	TypeStyles       ChunkType = 0x1a
	TypeStencils     ChunkType = 0x1d
	TypeStencilPage  ChunkType = 0x1e
	TypeOLEData      ChunkType = 0x1f
	TypePages        ChunkType = 0x27
	TypeNameList     ChunkType = 0x2c
	TypeName         ChunkType = 0x2d
	TypeNameList2    ChunkType = 0x32
	TypeName2        ChunkType = 0x33
	TypeNameIdx123   ChunkType = 0x34
	TypePageSheet    ChunkType = 0x46
	TypeShapeGroup   ChunkType = 0x47
	TypeShapeShape   ChunkType = 0x48
	TypeStyleSheet   ChunkType = 0x4a
	TypeShapeGuide   ChunkType = 0x4d
	TypeShapeForeign ChunkType = 0x4e
	TypeShapeList    ChunkType = 0x65
	TypeFieldList    ChunkType = 0x66
	TypePropList     ChunkType = 0x68
	TypeCharList     ChunkType = 0x69
	TypeParaList     ChunkType = 0x6a
	TypeGeomList     ChunkType = 0x6c
	TypeLayerList    ChunkType = 0x6f
	TypeConnectList  ChunkType = 0x72
	TypeShapeID      ChunkType = 0x83
	TypeGeometry     ChunkType = 0x89
	TypeXFormData    ChunkType = 0x9b
	TypeTextXForm    ChunkType = 0x9c
	TypeXForm1D      ChunkType = 0x9d
	TypeDocProps     ChunkType = 0xbc
	TypeImage        ChunkType = 0xbd
	TypeNameIdx      ChunkType = 0xc9
	TypeShapeData    ChunkType = 0xd1
	TypeFontFace     ChunkType = 0xd7
	TypeFontFaces    ChunkType = 0xd8
)

var typeNames = map[ChunkType]string{
	TypeForeignData:  "foreign_data",
	TypeOLEList:      "ole_list",
	TypeText:         "text",
	TypeTrailer:      "trailer",
	TypePage:         "page",
	TypeColors:       "colors",
	TypeFontList:     "font_list",
	TypeFontIX:       "font_ix",
	TypeStyles:       "styles",
	TypeStencils:     "stencils",
	TypeStencilPage:  "stencil_page",
	TypeOLEData:      "ole_data",
	TypePages:        "pages",
	TypeNameList:     "name_list",
	TypeName:         "name",
	TypeNameList2:    "name_list2",
	TypeName2:        "name2",
	TypeNameIdx123:   "name_idx123",
	TypePageSheet:    "page_sheet",
	TypeShapeGroup:   "shape_group",
	TypeShapeShape:   "shape",
	TypeStyleSheet:   "style_sheet",
	TypeShapeGuide:   "shape_guide",
	TypeShapeForeign: "shape_foreign",
	TypeShapeList:    "shape_list",
	TypeFieldList:    "field_list",
	TypePropList:     "prop_list",
	TypeCharList:     "char_list",
	TypeParaList:     "para_list",
	TypeGeomList:     "geom_list",
	TypeLayerList:    "layer_list",
	TypeConnectList:  "connect_list",
	TypeShapeID:      "shape_id",
	TypeGeometry:     "geometry",
	TypeXFormData:    "xform_data",
	TypeTextXForm:    "text_xform",
	TypeXForm1D:      "xform_1d",
	TypeDocProps:     "doc_props",
	TypeImage:        "image",
	TypeNameIdx:      "name_idx",
	TypeShapeData:    "shape_data",
	TypeFontFace:     "font_face",
	TypeFontFaces:    "font_faces",
}

func (t ChunkType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(t))
}

// Category is the semantic role of a chunk as far as traversal is concerned.
type Category int

const (
	CategoryNone Category = iota
	CategoryPage
	CategoryPages
	CategoryStencils
	CategoryStencilPage
	CategoryOLEList
	CategoryShape
)

var categoryNames = [...]string{
	CategoryNone:        "none",
	CategoryPage:        "page",
	CategoryPages:       "pages",
	CategoryStencils:    "stencils",
	CategoryStencilPage: "stencil_page",
	CategoryOLEList:     "ole_list",
	CategoryShape:       "shape",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

var categories = map[ChunkType]Category{
	TypePage:         CategoryPage,
	TypePages:        CategoryPages,
	TypeStencils:     CategoryStencils,
	TypeStencilPage:  CategoryStencilPage,
	TypeOLEList:      CategoryOLEList,
	TypeShapeGroup:   CategoryShape,
	TypeShapeShape:   CategoryShape,
	TypeShapeForeign: CategoryShape,
}

// Category returns the traversal category of t.
func (t ChunkType) Category() Category {
	return categories[t]
}

// bucket is the dispatch priority class of a directory entry.
type bucket int

const (
	bucketGeneric bucket = iota
	bucketNameList
	bucketNameIdx
	bucketFontFaces
)

func (t ChunkType) bucket() bucket {
	switch t {
	case TypeNameList, TypeNameList2:
		return bucketNameList
	case TypeNameIdx, TypeNameIdx123:
		return bucketNameIdx
	case TypeFontFaces:
		return bucketFontFaces
	}
	return bucketGeneric
}

// Layout says how the decoded bytes of a chunk are organized.
type Layout int

const (
	LayoutOpaque Layout = iota
	LayoutBlob
	LayoutDirectory
	LayoutRecords
)

var layoutNames = [...]string{
	LayoutOpaque:    "opaque",
	LayoutBlob:      "blob",
	LayoutDirectory: "directory",
	LayoutRecords:   "records",
}

func (l Layout) String() string {
	if l >= 0 && int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return "unknown"
}
