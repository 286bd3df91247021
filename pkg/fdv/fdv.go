// Package fdv writes FDV interchange files: flow exports carrying
// flow/depth/velocity triplets and rainfall intensity exports. The format
// is fixed-width ASCII consumed by downstream hydraulic modelling tools,
// so every header line and record width here is load-bearing.
package fdv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

// stampLayout is the compact timestamp used on the *CSTART constants line.
const stampLayout = "200601021504"

// identifierLine renders the **IDENTIFIER header line: site name upper-cased
// and truncated to 15 characters.
func identifierLine(siteName string) string {
	if len(siteName) > 15 {
		siteName = siteName[:15]
	}
	return fmt.Sprintf("**IDENTIFIER:            1,%s", strings.ToUpper(siteName))
}

// writeConstantsTail writes the start/end/interval line and *CEND that close
// the constants block of both flow and rainfall files.
func writeConstantsTail(w io.Writer, start, end time.Time, interval time.Duration) error {
	minutes := int64(interval / time.Minute)
	if _, err := fmt.Fprintf(w, "%s %s   %d\n", start.Format(stampLayout), end.Format(stampLayout), minutes); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "*CEND")
	return err
}

// writeAtomic writes the encoded payload to path via a temp file in the
// same directory followed by a rename, so a crashed export never leaves a
// truncated FDV behind.
func writeAtomic(path string, encode func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "create temp output").
			WithContext("path", path)
	}
	tmpName := tmp.Name()

	if err := encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeWriteFailed, "flush output").
			WithContext("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeWriteFailed, "rename output into place").
			WithContext("path", path)
	}
	return nil
}
