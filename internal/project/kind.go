package project

import "strings"

// Kind is the primitive tag of a Type. The set is closed; names follow
// the Feather type names used by GameMaker.
type Kind string

const (
	KindAny         Kind = "Any"
	KindArray       Kind = "Array"
	KindBool        Kind = "Bool"
	KindConstructor Kind = "Constructor"
	KindEnum        Kind = "Enum"
	KindEnumMember  Kind = "EnumMember"
	KindFunction    Kind = "Function"
	KindMacro       Kind = "Macro"
	KindMixed       Kind = "Mixed"
	KindPointer     Kind = "Pointer"
	KindReal        Kind = "Real"
	KindString      Kind = "String"
	KindStruct      Kind = "Struct"
	KindUndefined   Kind = "Undefined"
	KindUnion       Kind = "Union"
	KindUnknown     Kind = "Unknown"

	KindDsGrid     Kind = "Id.DsGrid"
	KindDsList     Kind = "Id.DsList"
	KindDsMap      Kind = "Id.DsMap"
	KindDsPriority Kind = "Id.DsPriority"
	KindDsQueue    Kind = "Id.DsQueue"
	KindDsStack    Kind = "Id.DsStack"
	KindInstance   Kind = "Id.Instance"
)

var kinds = []Kind{
	KindAny,
	KindArray,
	"Asset.GMAnimCurve",
	"Asset.GMAudioGroup",
	"Asset.GMFont",
	"Asset.GMObject",
	"Asset.GMParticleSystem",
	"Asset.GMPath",
	"Asset.GMRoom",
	"Asset.GMScript",
	"Asset.GMSequence",
	"Asset.GMShader",
	"Asset.GMSound",
	"Asset.GMSprite",
	"Asset.GMTileSet",
	"Asset.GMTimeline",
	"Asset.Script",
	KindBool,
	KindConstructor,
	KindEnum,
	KindEnumMember,
	KindFunction,
	"Id.AudioEmitter",
	"Id.AudioListener",
	"Id.AudioSyncGroup",
	"Id.BackgroundElement",
	"Id.BinaryFile",
	"Id.Buffer",
	"Id.Camera",
	KindDsGrid,
	KindDsList,
	KindDsMap,
	KindDsPriority,
	KindDsQueue,
	KindDsStack,
	"Id.ExternalCall",
	"Id.Gif",
	KindInstance,
	"Id.Layer",
	"Id.MpGrid",
	"Id.ParticleEmitter",
	"Id.ParticleSystem",
	"Id.ParticleType",
	"Id.PhysicsIndex",
	"Id.PhysicsParticleGroup",
	"Id.Sampler",
	"Id.SequenceElement",
	"Id.Socket",
	"Id.Sound",
	"Id.SpriteElement",
	"Id.Surface",
	"Id.TextFile",
	"Id.Texture",
	"Id.TileElementId",
	"Id.TileMapElement",
	"Id.TimeSource",
	"Id.Uniform",
	"Id.VertexBuffer",
	"Id.VertexFormat",
	KindMacro,
	KindMixed,
	KindPointer,
	KindReal,
	KindString,
	KindStruct,
	KindUndefined,
	KindUnion,
	KindUnknown,
}

var kindsByLowerName = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		m[strings.ToLower(string(k))] = k
	}
	return m
}()

// Kinds returns every primitive kind.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// LookupKind matches name case-insensitively against the primitive kinds.
func LookupKind(name string) (Kind, bool) {
	k, ok := kindsByLowerName[strings.ToLower(name)]
	return k, ok
}

// IsContainer reports whether values of this kind hold homogeneous items.
func (k Kind) IsContainer() bool {
	return k == KindArray || strings.HasPrefix(string(k), "Id.Ds")
}

// HasMembers reports whether values of this kind hold named members.
func (k Kind) HasMembers() bool {
	return k == KindStruct || k == KindEnum
}

// IsCallable reports whether the kind describes something that can be called.
func (k Kind) IsCallable() bool {
	return k == KindFunction || k == KindConstructor
}
