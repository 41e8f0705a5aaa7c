// Package layout fetches the raw layout document that declares the
// synthetic tree.
//
// Three source forms are accepted:
//
//   - "-" reads the document from stdin, so generators can pipe a
//     layout straight into the mount
//   - "s3://bucket/key" fetches the document from S3
//   - anything else is treated as a local file path
//
// The loader only moves bytes. Decoding and validation belong to the
// tree package.
package layout

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/jsonfs/jsonfs/internal/config"
	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
)

// Loader fetches the layout document named by the configuration.
type Loader struct {
	cfg   config.LayoutConfig
	stdin io.Reader
	s3    objectGetter
}

// NewLoader creates a loader for the given layout source.
func NewLoader(cfg config.LayoutConfig) *Loader {
	return &Loader{cfg: cfg, stdin: os.Stdin}
}

// Load returns the raw document bytes. Fetch failures of any kind
// surface as LAYOUT_UNREADABLE with the underlying cause attached.
func (l *Loader) Load(ctx context.Context) ([]byte, error) {
	source := l.cfg.Source
	switch {
	case source == "-":
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, jfserrors.NewLayoutUnreadable("stdin", err)
		}
		return data, nil
	case strings.HasPrefix(source, "s3://"):
		return l.loadFromS3(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, jfserrors.NewLayoutUnreadable(source, err)
		}
		return data, nil
	}
}
