package processor

import (
	"fmt"
	"os"

	"github.com/vidstream/kvsmkv/fragment"
)

// Save writes the fragment's raw byte range verbatim to path. The result
// opens as a standalone MKV file because fragment boundaries align with
// complete top-level units. No retry on failure.
func Save(f *fragment.Fragment, path string) error {
	if err := os.WriteFile(path, f.Raw, 0644); err != nil {
		return fmt.Errorf("processor: save fragment %d: %w", f.Seq, err)
	}
	return nil
}
