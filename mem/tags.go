package mem

// NodeTag identifies a node variant; stored in B0 of a node's head word
// (spec.md §3.1).
type NodeTag byte

const (
	TagHList NodeTag = iota
	TagVList
	TagRule
	TagIns
	TagMark
	TagAdjust
	TagChar
	TagLigature
	TagDiscretionary
	TagWhatsit
	TagMath
	TagGlue
	TagKern
	TagPenalty
	TagUnset
	TagStyle
	TagChoice
	// Noads (math mode).
	TagNoadOrd
	TagNoadOp
	TagNoadBin
	TagNoadRel
	TagNoadOpen
	TagNoadClose
	TagNoadPunct
	TagNoadInner
	TagNoadRadical
	TagNoadFraction
	TagNoadUnder
	TagNoadOver
	TagNoadAccent
	TagNoadVcenter
	TagNoadLeft
	TagNoadRight
)

// Size is the fixed word count of a node variant's tag (1-7 words);
// every variant has a fixed size here, and unset boxes share the
// 7-word box size rather than tracking span count.
func (t NodeTag) Size() int {
	switch t {
	case TagRule:
		return 4
	case TagIns:
		return 5
	case TagMark:
		return 2
	case TagAdjust:
		return 2
	case TagLigature:
		return 2 // plus an attached character-chain via the lig_ptr field
	case TagDiscretionary:
		return 3
	case TagMath:
		return 2
	case TagGlue:
		return 2
	case TagKern:
		return 2
	case TagPenalty:
		return 2
	case TagHList, TagVList, TagUnset:
		return 7
	case TagStyle:
		return 1
	case TagChoice:
		return 4
	default:
		return 2
	}
}

// GlueOrder distinguishes the infinity order of a stretch/shrink total.
type GlueOrder byte

const (
	Normal GlueOrder = iota
	Fil
	Fill
	Filll
)

// GlueSign records whether a packaged box is stretching, shrinking, or
// exactly at its natural size (spec.md §4.6).
type GlueSign byte

const (
	GlueNormal GlueSign = iota
	Stretching
	Shrinking
)
