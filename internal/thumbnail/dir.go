package thumbnail

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirLoader checks thumbnails that are served from a local directory.
// Absolute URLs are handed to Remote when it is set.
type DirLoader struct {
	Root   string
	Remote ImageLoader
}

func (l DirLoader) Load(ctx context.Context, src string) error {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return err
	}
	if ref.IsAbs() {
		if l.Remote == nil {
			return fmt.Errorf("remote thumbnail %q without loader", src)
		}
		return l.Remote.Load(ctx, src)
	}

	clean := path.Clean("/" + ref.Path)
	if !strings.HasPrefix(mime.TypeByExtension(path.Ext(clean)), "image/") {
		return fmt.Errorf("thumbnail %q is not an image", src)
	}
	info, err := os.Stat(filepath.Join(l.Root, filepath.FromSlash(clean)))
	if err != nil {
		return err
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("thumbnail %q is empty", src)
	}
	return nil
}
