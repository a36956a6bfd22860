package ebml

const (
	TypeUnknown uint8 = iota
	TypeMaster
	TypeUint
	TypeInt
	TypeString
	TypeUnicode
	TypeBinary
	TypeFloat
	TypeDate
)

// ElementRegister contains the id, value type and name of the
// standard WebM/Matroska elements this library works with.
type ElementRegister struct {
	ID   uint32
	Type uint8
	Name string
}

var (
	ElementUnknown = ElementRegister{0x0, TypeUnknown, "Unknown"}

	ElementEBML               = ElementRegister{0x1a45dfa3, TypeMaster, "EBML"}
	ElementEBMLVersion        = ElementRegister{0x4286, TypeUint, "EBMLVersion"}
	ElementEBMLReadVersion    = ElementRegister{0x42f7, TypeUint, "EBMLReadVersion"}
	ElementEBMLMaxIDLength    = ElementRegister{0x42f2, TypeUint, "EBMLMaxIDLength"}
	ElementEBMLMaxSizeLength  = ElementRegister{0x42f3, TypeUint, "EBMLMaxSizeLength"}
	ElementDocType            = ElementRegister{0x4282, TypeString, "DocType"}
	ElementDocTypeVersion     = ElementRegister{0x4287, TypeUint, "DocTypeVersion"}
	ElementDocTypeReadVersion = ElementRegister{0x4285, TypeUint, "DocTypeReadVersion"}

	ElementVoid  = ElementRegister{0xec, TypeBinary, "Void"}
	ElementCRC32 = ElementRegister{0xbf, TypeBinary, "CRC-32"}

	ElementSegment      = ElementRegister{0x18538067, TypeMaster, "Segment"}
	ElementSeekHead     = ElementRegister{0x114d9b74, TypeMaster, "SeekHead"}
	ElementSeek         = ElementRegister{0x4dbb, TypeMaster, "Seek"}
	ElementSeekID       = ElementRegister{0x53ab, TypeBinary, "SeekID"}
	ElementSeekPosition = ElementRegister{0x53ac, TypeUint, "SeekPosition"}

	ElementInfo            = ElementRegister{0x1549a966, TypeMaster, "Info"}
	ElementSegmentUID      = ElementRegister{0x73a4, TypeBinary, "SegmentUID"}
	ElementSegmentFilename = ElementRegister{0x7384, TypeUnicode, "SegmentFilename"}
	ElementTimecodeScale   = ElementRegister{0x2ad7b1, TypeUint, "TimecodeScale"}
	ElementDuration        = ElementRegister{0x4489, TypeFloat, "Duration"}
	ElementDateUTC         = ElementRegister{0x4461, TypeDate, "DateUTC"}
	ElementTitle           = ElementRegister{0x7ba9, TypeUnicode, "Title"}
	ElementMuxingApp       = ElementRegister{0x4d80, TypeUnicode, "MuxingApp"}
	ElementWritingApp      = ElementRegister{0x5741, TypeUnicode, "WritingApp"}

	ElementCluster        = ElementRegister{0x1f43b675, TypeMaster, "Cluster"}
	ElementTimecode       = ElementRegister{0xe7, TypeUint, "Timecode"}
	ElementPosition       = ElementRegister{0xa7, TypeUint, "Position"}
	ElementPrevSize       = ElementRegister{0xab, TypeUint, "PrevSize"}
	ElementSimpleBlock    = ElementRegister{0xa3, TypeBinary, "SimpleBlock"}
	ElementBlockGroup     = ElementRegister{0xa0, TypeMaster, "BlockGroup"}
	ElementBlock          = ElementRegister{0xa1, TypeBinary, "Block"}
	ElementBlockDuration  = ElementRegister{0x9b, TypeUint, "BlockDuration"}
	ElementReferenceBlock = ElementRegister{0xfb, TypeInt, "ReferenceBlock"}

	ElementTracks          = ElementRegister{0x1654ae6b, TypeMaster, "Tracks"}
	ElementTrackEntry      = ElementRegister{0xae, TypeMaster, "TrackEntry"}
	ElementTrackNumber     = ElementRegister{0xd7, TypeUint, "TrackNumber"}
	ElementTrackUID        = ElementRegister{0x73c5, TypeUint, "TrackUID"}
	ElementTrackType       = ElementRegister{0x83, TypeUint, "TrackType"}
	ElementFlagDefault     = ElementRegister{0x88, TypeUint, "FlagDefault"}
	ElementFlagLacing      = ElementRegister{0x9c, TypeUint, "FlagLacing"}
	ElementDefaultDuration = ElementRegister{0x23e383, TypeUint, "DefaultDuration"}
	ElementName            = ElementRegister{0x536e, TypeUnicode, "Name"}
	ElementLanguage        = ElementRegister{0x22b59c, TypeString, "Language"}
	ElementCodecID         = ElementRegister{0x86, TypeString, "CodecID"}
	ElementCodecPrivate    = ElementRegister{0x63a2, TypeBinary, "CodecPrivate"}
	ElementCodecName       = ElementRegister{0x258688, TypeUnicode, "CodecName"}

	ElementVideo       = ElementRegister{0xe0, TypeMaster, "Video"}
	ElementPixelWidth  = ElementRegister{0xb0, TypeUint, "PixelWidth"}
	ElementPixelHeight = ElementRegister{0xba, TypeUint, "PixelHeight"}

	ElementAudio                   = ElementRegister{0xe1, TypeMaster, "Audio"}
	ElementSamplingFrequency       = ElementRegister{0xb5, TypeFloat, "SamplingFrequency"}
	ElementOutputSamplingFrequency = ElementRegister{0x78b5, TypeFloat, "OutputSamplingFrequency"}
	ElementChannels                = ElementRegister{0x9f, TypeUint, "Channels"}
	ElementBitDepth                = ElementRegister{0x6264, TypeUint, "BitDepth"}

	ElementCues               = ElementRegister{0x1c53bb6b, TypeMaster, "Cues"}
	ElementCuePoint           = ElementRegister{0xbb, TypeMaster, "CuePoint"}
	ElementCueTime            = ElementRegister{0xb3, TypeUint, "CueTime"}
	ElementCueTrackPositions  = ElementRegister{0xb7, TypeMaster, "CueTrackPositions"}
	ElementCueTrack           = ElementRegister{0xf7, TypeUint, "CueTrack"}
	ElementCueClusterPosition = ElementRegister{0xf1, TypeUint, "CueClusterPosition"}

	ElementTags            = ElementRegister{0x1254c367, TypeMaster, "Tags"}
	ElementTag             = ElementRegister{0x7373, TypeMaster, "Tag"}
	ElementTargets         = ElementRegister{0x63c0, TypeMaster, "Targets"}
	ElementTargetTypeValue = ElementRegister{0x68ca, TypeUint, "TargetTypeValue"}
	ElementTagTrackUID     = ElementRegister{0x63c5, TypeUint, "TagTrackUID"}
	ElementSimpleTag       = ElementRegister{0x67c8, TypeMaster, "SimpleTag"}
	ElementTagName         = ElementRegister{0x45a3, TypeUnicode, "TagName"}
	ElementTagLanguage     = ElementRegister{0x447a, TypeString, "TagLanguage"}
	ElementTagDefault      = ElementRegister{0x4484, TypeUint, "TagDefault"}
	ElementTagString       = ElementRegister{0x4487, TypeUnicode, "TagString"}
	ElementTagBinary       = ElementRegister{0x4485, TypeBinary, "TagBinary"}
)

var registry = map[uint32]ElementRegister{}

func init() {
	for _, reg := range []ElementRegister{
		ElementEBML, ElementEBMLVersion, ElementEBMLReadVersion,
		ElementEBMLMaxIDLength, ElementEBMLMaxSizeLength,
		ElementDocType, ElementDocTypeVersion, ElementDocTypeReadVersion,
		ElementVoid, ElementCRC32,
		ElementSegment, ElementSeekHead, ElementSeek, ElementSeekID, ElementSeekPosition,
		ElementInfo, ElementSegmentUID, ElementSegmentFilename,
		ElementTimecodeScale, ElementDuration, ElementDateUTC,
		ElementTitle, ElementMuxingApp, ElementWritingApp,
		ElementCluster, ElementTimecode, ElementPosition, ElementPrevSize,
		ElementSimpleBlock, ElementBlockGroup, ElementBlock,
		ElementBlockDuration, ElementReferenceBlock,
		ElementTracks, ElementTrackEntry, ElementTrackNumber, ElementTrackUID,
		ElementTrackType, ElementFlagDefault, ElementFlagLacing,
		ElementDefaultDuration, ElementName, ElementLanguage,
		ElementCodecID, ElementCodecPrivate, ElementCodecName,
		ElementVideo, ElementPixelWidth, ElementPixelHeight,
		ElementAudio, ElementSamplingFrequency, ElementOutputSamplingFrequency,
		ElementChannels, ElementBitDepth,
		ElementCues, ElementCuePoint, ElementCueTime,
		ElementCueTrackPositions, ElementCueTrack, ElementCueClusterPosition,
		ElementTags, ElementTag, ElementTargets, ElementTargetTypeValue,
		ElementTagTrackUID, ElementSimpleTag, ElementTagName,
		ElementTagLanguage, ElementTagDefault, ElementTagString, ElementTagBinary,
	} {
		registry[reg.ID] = reg
	}
}

// GetElementRegister returns the infos concerning the provided element id.
// Unregistered ids come back as opaque binary leaves.
func GetElementRegister(id uint32) ElementRegister {
	if reg, ok := registry[id]; ok {
		return reg
	}
	return ElementRegister{id, TypeUnknown, "Unknown"}
}

// children maps each master element to the ids that may appear directly
// inside it. Unknown-size masters close when the next id at their level is
// not one of these.
var children = map[uint32]map[uint32]struct{}{
	ElementEBML.ID: childSet(
		ElementEBMLVersion, ElementEBMLReadVersion,
		ElementEBMLMaxIDLength, ElementEBMLMaxSizeLength,
		ElementDocType, ElementDocTypeVersion, ElementDocTypeReadVersion,
	),
	ElementSegment.ID: childSet(
		ElementSeekHead, ElementInfo, ElementTracks,
		ElementCluster, ElementCues, ElementTags,
	),
	ElementSeekHead.ID: childSet(ElementSeek),
	ElementSeek.ID:     childSet(ElementSeekID, ElementSeekPosition),
	ElementInfo.ID: childSet(
		ElementSegmentUID, ElementSegmentFilename, ElementTimecodeScale,
		ElementDuration, ElementDateUTC, ElementTitle,
		ElementMuxingApp, ElementWritingApp,
	),
	ElementCluster.ID: childSet(
		ElementTimecode, ElementPosition, ElementPrevSize,
		ElementSimpleBlock, ElementBlockGroup,
	),
	ElementBlockGroup.ID: childSet(ElementBlock, ElementBlockDuration, ElementReferenceBlock),
	ElementTracks.ID:     childSet(ElementTrackEntry),
	ElementTrackEntry.ID: childSet(
		ElementTrackNumber, ElementTrackUID, ElementTrackType,
		ElementFlagDefault, ElementFlagLacing, ElementDefaultDuration,
		ElementName, ElementLanguage, ElementCodecID, ElementCodecPrivate,
		ElementCodecName, ElementVideo, ElementAudio,
	),
	ElementVideo.ID: childSet(ElementPixelWidth, ElementPixelHeight),
	ElementAudio.ID: childSet(
		ElementSamplingFrequency, ElementOutputSamplingFrequency,
		ElementChannels, ElementBitDepth,
	),
	ElementCues.ID:              childSet(ElementCuePoint),
	ElementCuePoint.ID:          childSet(ElementCueTime, ElementCueTrackPositions),
	ElementCueTrackPositions.ID: childSet(ElementCueTrack, ElementCueClusterPosition),
	ElementTags.ID:              childSet(ElementTag),
	ElementTag.ID:               childSet(ElementTargets, ElementSimpleTag),
	ElementTargets.ID:           childSet(ElementTargetTypeValue, ElementTagTrackUID),
	ElementSimpleTag.ID: childSet(
		ElementTagName, ElementTagLanguage, ElementTagDefault,
		ElementTagString, ElementTagBinary,
	),
}

func childSet(regs ...ElementRegister) map[uint32]struct{} {
	m := make(map[uint32]struct{}, len(regs))
	for _, reg := range regs {
		m[reg.ID] = struct{}{}
	}
	return m
}

// ValidChild reports whether child may appear directly inside parent.
// Void and CRC-32 are global elements, valid anywhere.
func ValidChild(parent, child uint32) bool {
	if child == ElementVoid.ID || child == ElementCRC32.ID {
		return true
	}
	m, ok := children[parent]
	if !ok {
		return false
	}
	_, ok = m[child]
	return ok
}
