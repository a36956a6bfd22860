// Package processor provides post-processing over a completed fragment's
// element tree: tag extraction, track enumeration, block extraction and
// persistence. It keeps no state across fragments, so its functions may
// run concurrently on different fragments.
package processor

import (
	"errors"
	"fmt"

	"github.com/vidstream/kvsmkv/ebml"
	"github.com/vidstream/kvsmkv/fragment"
)

var ErrUnknownTrack = errors.New("processor: no block references track")

// Matroska track types.
const (
	TrackTypeVideo uint64 = 1
	TrackTypeAudio uint64 = 2
)

// Track describes one TrackEntry of a fragment's track table. Each
// fragment carries its own full table.
type Track struct {
	Number            uint64
	Type              uint64
	Name              string
	CodecID           string
	Channels          uint64
	BitDepth          uint64
	SamplingFrequency float64
}

// Block is one decoded SimpleBlock: the track it belongs to, its signed
// timecode relative to the enclosing cluster, the flags byte and the raw
// frame bytes. Data is a view into the fragment's buffer.
type Block struct {
	Track    uint64
	Timecode int16
	Flags    byte
	Data     []byte
}

// Tags collects the fragment's SimpleTag name/value pairs. A fragment
// without a Tags element yields an empty map, not an error.
func Tags(f *fragment.Fragment) (map[string]string, error) {
	seg, err := f.Segment()
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, tags := range seg.FindAll(ebml.ElementTags.ID) {
		for _, tag := range tags.FindAll(ebml.ElementTag.ID) {
			for _, st := range tag.FindAll(ebml.ElementSimpleTag.ID) {
				var name, value string
				for _, el := range st.Children {
					switch el.ID {
					case ebml.ElementTagName.ID:
						name = el.Text()
					case ebml.ElementTagString.ID:
						value = el.Text()
					case ebml.ElementTagBinary.ID:
						value = string(el.Content)
					}
				}
				if name != "" {
					out[name] = value
				}
			}
		}
	}
	return out, nil
}

// Tracks enumerates the fragment's track table in document order.
func Tracks(f *fragment.Fragment) ([]Track, error) {
	seg, err := f.Segment()
	if err != nil {
		return nil, err
	}
	var out []Track
	for _, tracks := range seg.FindAll(ebml.ElementTracks.ID) {
		for _, entry := range tracks.FindAll(ebml.ElementTrackEntry.ID) {
			var t Track
			for _, el := range entry.Children {
				switch el.ID {
				case ebml.ElementTrackNumber.ID:
					t.Number = el.Uint()
				case ebml.ElementTrackType.ID:
					t.Type = el.Uint()
				case ebml.ElementName.ID:
					t.Name = el.Text()
				case ebml.ElementCodecID.ID:
					t.CodecID = el.Text()
				case ebml.ElementAudio.ID:
					for _, a := range el.Children {
						switch a.ID {
						case ebml.ElementChannels.ID:
							t.Channels = a.Uint()
						case ebml.ElementBitDepth.ID:
							t.BitDepth = a.Uint()
						case ebml.ElementSamplingFrequency.ID:
							t.SamplingFrequency = a.Float()
						}
					}
				}
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// AudioTracks filters the track table to audio entries, preserving
// document order.
func AudioTracks(f *fragment.Fragment) ([]Track, error) {
	all, err := Tracks(f)
	if err != nil {
		return nil, err
	}
	var out []Track
	for _, t := range all {
		if t.Type == TrackTypeAudio {
			out = append(out, t)
		}
	}
	return out, nil
}

// Blocks extracts the fragment's SimpleBlocks for one track, in original
// byte order. ErrUnknownTrack means no block in the fragment references
// the track; callers streaming mixed media may treat that as "no samples
// this fragment".
func Blocks(f *fragment.Fragment, track uint64) ([]Block, error) {
	seg, err := f.Segment()
	if err != nil {
		return nil, err
	}
	var out []Block
	found := false
	for _, cluster := range seg.FindAll(ebml.ElementCluster.ID) {
		for _, sb := range cluster.FindAll(ebml.ElementSimpleBlock.ID) {
			blk, err := DecodeBlock(sb.Content)
			if err != nil {
				return nil, fmt.Errorf("processor: cluster at offset %d: %w", cluster.Offset, err)
			}
			if blk.Track != track {
				continue
			}
			found = true
			out = append(out, blk)
		}
	}
	if !found {
		return nil, ErrUnknownTrack
	}
	return out, nil
}

// DecodeBlock splits a SimpleBlock payload into track number, relative
// timecode, flags and frame bytes.
func DecodeBlock(b []byte) (Block, error) {
	track, n, err := ebml.ReadVint(b, 0)
	if err != nil {
		return Block{}, err
	}
	if len(b) < n+3 {
		return Block{}, ebml.ErrTruncated
	}
	return Block{
		Track:    track,
		Timecode: int16(uint16(b[n])<<8 | uint16(b[n+1])),
		Flags:    b[n+2],
		Data:     b[n+3:],
	}, nil
}

// Dump pretty-prints the fragment's element tree.
func Dump(f *fragment.Fragment) (string, error) {
	els, err := f.Elements()
	if err != nil {
		return "", err
	}
	return ebml.Dump(els), nil
}
