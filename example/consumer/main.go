// Command consumer reads a Kinesis Video Streams stream with GetMedia and
// prints each fragment's metadata as it arrives. With --save-dir it also
// writes every fragment to disk as a standalone MKV file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesisvideo"
	kvtypes "github.com/aws/aws-sdk-go-v2/service/kinesisvideo/types"
	"github.com/aws/aws-sdk-go-v2/service/kinesisvideomedia"
	kvmtypes "github.com/aws/aws-sdk-go-v2/service/kinesisvideomedia/types"
	"github.com/spf13/cobra"

	"github.com/vidstream/kvsmkv/consumer"
	"github.com/vidstream/kvsmkv/fragment"
	"github.com/vidstream/kvsmkv/processor"
)

var (
	streamName string
	region     string
	saveDir    string
	dumpTree   bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "consumer --stream <name>",
	Short: "Consume a Kinesis Video stream fragment by fragment",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&streamName, "stream", "", "stream name (required)")
	rootCmd.Flags().StringVar(&region, "region", "us-west-2", "AWS region")
	rootCmd.Flags().StringVar(&saveDir, "save-dir", "", "save each fragment as <dir>/<fragment-number>.mkv")
	rootCmd.Flags().BoolVar(&dumpTree, "dump", false, "print the element tree of each fragment")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log per-fragment timing")
	rootCmd.MarkFlagRequired("stream")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return err
	}

	ep, err := kinesisvideo.NewFromConfig(cfg).GetDataEndpoint(ctx, &kinesisvideo.GetDataEndpointInput{
		StreamName: aws.String(streamName),
		APIName:    kvtypes.APINameGetMedia,
	})
	if err != nil {
		return fmt.Errorf("get data endpoint: %w", err)
	}

	media := kinesisvideomedia.NewFromConfig(cfg, func(o *kinesisvideomedia.Options) {
		o.BaseEndpoint = ep.DataEndpoint
	})
	resp, err := media.GetMedia(ctx, &kinesisvideomedia.GetMediaInput{
		StreamName: aws.String(streamName),
		StartSelector: &kvmtypes.StartSelector{
			StartSelectorType: kvmtypes.StartSelectorTypeNow,
		},
	})
	if err != nil {
		return fmt.Errorf("get media: %w", err)
	}

	c, err := consumer.New(consumer.NewReaderSource(resp.Payload), consumer.ClientOptions{
		StreamName: streamName,
		Debug:      debug,
	}, consumer.Callbacks{
		OnFragmentArrived:    onFragment,
		OnStreamReadComplete: func(name string) { log.Println(name, "stream read complete") },
		OnStreamReadError:    func(name string, err error) { log.Println(name, "stream read error:", err) },
	})
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		c.Stop()
	}()

	log.Println("session", c.SessionID(), "reading", streamName)
	c.Start()
	c.Wait()
	return nil
}

func onFragment(name string, f *fragment.Fragment, d time.Duration) {
	md, err := processor.KVSMetadata(f)
	if err != nil {
		log.Println(name, "fragment", f.Seq, "metadata:", err)
		return
	}
	log.Printf("%s fragment %s: %d bytes, %s behind, received in %s",
		name, md.FragmentNumber, len(f.Raw), time.Duration(md.MillisBehindNow)*time.Millisecond, d)

	if tracks, err := processor.AudioTracks(f); err == nil {
		for _, tr := range tracks {
			blocks, err := processor.Blocks(f, tr.Number)
			if err != nil {
				continue
			}
			log.Printf("  track %d %q %s: %d blocks", tr.Number, tr.Name, tr.CodecID, len(blocks))
		}
	}

	if dumpTree {
		if out, err := processor.Dump(f); err == nil {
			fmt.Print(out)
		}
	}

	if saveDir != "" {
		path := filepath.Join(saveDir, md.FragmentNumber+".mkv")
		if md.FragmentNumber == "" {
			path = filepath.Join(saveDir, fmt.Sprintf("%012d.mkv", f.Seq))
		}
		if err := processor.Save(f, path); err != nil {
			log.Println(name, "save:", err)
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
