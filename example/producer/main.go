// Command producer serves a synthetic audio stream shaped like a GetMedia
// response over a websocket: an endless sequence of fragments, each an EBML
// header plus an unknown-size Segment tagged the way Kinesis Video Streams
// tags them. Pair it with consumer.DialWS to exercise the pipeline without
// an AWS account.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type header struct {
	EBMLVersion        uint64 `ebml:"EBMLVersion"`
	EBMLReadVersion    uint64 `ebml:"EBMLReadVersion"`
	EBMLMaxIDLength    uint64 `ebml:"EBMLMaxIDLength"`
	EBMLMaxSizeLength  uint64 `ebml:"EBMLMaxSizeLength"`
	DocType            string `ebml:"EBMLDocType"`
	DocTypeVersion     uint64 `ebml:"EBMLDocTypeVersion"`
	DocTypeReadVersion uint64 `ebml:"EBMLDocTypeReadVersion"`
}

type info struct {
	TimecodeScale uint64
	MuxingApp     string
	WritingApp    string
}

type audio struct {
	SamplingFrequency float64
	Channels          uint64
}

type trackEntry struct {
	TrackNumber uint64
	TrackUID    uint64
	TrackType   uint64
	Name        string
	CodecID     string
	Audio       audio
}

type cluster struct {
	Timecode    uint64
	SimpleBlock []ebml.Block
}

type simpleTag struct {
	TagName   string
	TagString string
}

type tag struct {
	SimpleTag []simpleTag
}

type segment struct {
	Info    info
	Tracks  struct{ TrackEntry []trackEntry }
	Cluster []cluster
	Tags    struct{ Tag []tag }
}

type container struct {
	Header  header  `ebml:"EBML"`
	Segment segment `ebml:"Segment,size=unknown"`
}

// fragment builds one complete fragment: 10 clusters of 100ms PCM tone.
func fragment(seq uint64, start time.Time) ([]byte, error) {
	c := container{
		Header: header{
			EBMLVersion:        1,
			EBMLReadVersion:    1,
			EBMLMaxIDLength:    4,
			EBMLMaxSizeLength:  8,
			DocType:            "matroska",
			DocTypeVersion:     2,
			DocTypeReadVersion: 2,
		},
	}
	c.Segment.Info = info{TimecodeScale: 1000000, MuxingApp: "producer", WritingApp: "producer"}
	c.Segment.Tracks.TrackEntry = []trackEntry{{
		TrackNumber: 1,
		TrackUID:    1,
		TrackType:   2,
		Name:        "AUDIO_FROM_CUSTOMER",
		CodecID:     "A_PCM/INT/LIT",
		Audio:       audio{SamplingFrequency: 8000, Channels: 1},
	}}
	for i := 0; i < 10; i++ {
		c.Segment.Cluster = append(c.Segment.Cluster, cluster{
			Timecode: uint64(i * 100),
			SimpleBlock: []ebml.Block{{
				TrackNumber: 1,
				Keyframe:    true,
				Data:        [][]byte{tone(800, seq*1000+uint64(i)*100)},
			}},
		})
	}
	c.Segment.Tags.Tag = []tag{{SimpleTag: []simpleTag{
		{TagName: "AWS_KINESISVIDEO_FRAGMENT_NUMBER", TagString: fmt.Sprintf("%047d", seq+1)},
		{TagName: "AWS_KINESISVIDEO_SERVER_TIMESTAMP", TagString: epoch(time.Now())},
		{TagName: "AWS_KINESISVIDEO_PRODUCER_TIMESTAMP", TagString: epoch(start)},
		{TagName: "AWS_KINESISVIDEO_MILLIS_BEHIND_NOW", TagString: "0"},
		{TagName: "AWS_KINESISVIDEO_CONTINUATION_TOKEN", TagString: fmt.Sprintf("%047d", seq+2)},
	}}}

	var buf bytes.Buffer
	if err := ebml.Marshal(&c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tone generates 100ms of 16-bit little-endian sine at the given phase.
func tone(hz float64, offsetMillis uint64) []byte {
	const rate = 8000
	out := make([]byte, rate/10*2)
	for i := 0; i < rate/10; i++ {
		t := float64(offsetMillis)/1000 + float64(i)/rate
		s := int16(12000 * math.Sin(2*math.Pi*hz*t))
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

func epoch(t time.Time) string {
	return fmt.Sprintf("%d.%03d", t.Unix(), t.Nanosecond()/int(time.Millisecond))
}

func serve(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()
	log.Println("stream to", conn.RemoteAddr())

	start := time.Now()
	for seq := uint64(0); ; seq++ {
		b, err := fragment(seq, start)
		if err != nil {
			log.Println("marshal:", err)
			return
		}
		if err := wsutil.WriteServerBinary(conn, b); err != nil {
			log.Println(conn.RemoteAddr(), "write:", err)
			return
		}
		time.Sleep(time.Second)
	}
}

func main() {
	addr := flag.String("addr", ":8083", "listen address")
	flag.Parse()
	http.HandleFunc("/stream", serve)
	log.Println("serving fragments on ws://" + *addr + "/stream")
	log.Fatal(http.ListenAndServe(*addr, nil))
}
