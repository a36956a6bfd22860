package processor

import (
	"math"
	"strconv"
	"time"

	"github.com/vidstream/kvsmkv/fragment"
)

// Tag names Kinesis Video Streams sets on every GetMedia fragment.
const (
	TagFragmentNumber    = "AWS_KINESISVIDEO_FRAGMENT_NUMBER"
	TagServerTimestamp   = "AWS_KINESISVIDEO_SERVER_TIMESTAMP"
	TagProducerTimestamp = "AWS_KINESISVIDEO_PRODUCER_TIMESTAMP"
	TagMillisBehindNow   = "AWS_KINESISVIDEO_MILLIS_BEHIND_NOW"
	TagContinuationToken = "AWS_KINESISVIDEO_CONTINUATION_TOKEN"
)

// Metadata is the per-fragment producer metadata KVS carries in simple
// tags. Fields are zero when the stream does not set the matching tag.
type Metadata struct {
	FragmentNumber    string
	ContinuationToken string
	MillisBehindNow   int64
	ProducerTimestamp time.Time
	ServerTimestamp   time.Time
}

// KVSMetadata reads the AWS_KINESISVIDEO_* tags of a fragment.
func KVSMetadata(f *fragment.Fragment) (Metadata, error) {
	tags, err := Tags(f)
	if err != nil {
		return Metadata{}, err
	}
	md := Metadata{
		FragmentNumber:    tags[TagFragmentNumber],
		ContinuationToken: tags[TagContinuationToken],
	}
	if v, ok := tags[TagMillisBehindNow]; ok {
		md.MillisBehindNow, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := tags[TagProducerTimestamp]; ok {
		md.ProducerTimestamp = parseEpochSeconds(v)
	}
	if v, ok := tags[TagServerTimestamp]; ok {
		md.ServerTimestamp = parseEpochSeconds(v)
	}
	return md, nil
}

// KVS encodes timestamps as unix seconds with a millisecond fraction,
// e.g. "1702310057.123". Rounding to that precision keeps the fraction
// exact; truncating the float64 would lose the last millisecond.
func parseEpochSeconds(v string) time.Time {
	sec, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(math.Round(sec * 1000))).UTC()
}
