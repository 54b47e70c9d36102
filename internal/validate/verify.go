package validate

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gen2brain/heic"
	"github.com/spf13/afero"
)

// ErrUnverifiable marks files whose format has no decoder. They are left
// alone rather than reported as corrupt.
var ErrUnverifiable = errors.New("no decoder for image format")

// ErrEmpty marks a zero-byte image file.
var ErrEmpty = errors.New("image file is empty")

type decoder struct {
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}

// sniffed lets the registered image formats pick the decoder from the file
// header, so a mislabelled but intact file still passes.
var sniffed = decoder{
	config: func(r io.Reader) (image.Config, error) {
		cfg, _, err := image.DecodeConfig(r)
		return cfg, err
	},
	decode: func(r io.Reader) (image.Image, error) {
		img, _, err := image.Decode(r)
		return img, err
	},
}

// HEIC brands vary (heic, heix, mif1, msf1), so the HEIC decoder is called
// directly rather than found through its registered "ftypheic" magic.
var heicDecoder = decoder{
	config: heic.DecodeConfig,
	decode: heic.Decode,
}

// decoders maps the extensions VerifyImage can check to their decoder.
var decoders = map[string]decoder{
	".jpg":  sniffed,
	".jpeg": sniffed,
	".png":  sniffed,
	".gif":  sniffed,
	".bmp":  sniffed,
	".webp": sniffed,
	".tiff": sniffed,
	".tif":  sniffed,
	".heic": heicDecoder,
}

// CanDecode reports whether path has an extension VerifyImage can check.
func CanDecode(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// VerifyImage checks path in two passes over two separate opens: the header
// and structure first, then a full pixel decode. Any failure in either pass
// means the file is corrupt. Empty files are corrupt whatever their format.
func VerifyImage(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	if info.Size() == 0 {
		return ErrEmpty
	}
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return ErrUnverifiable
	}
	if err := checkStructure(fs, path, dec); err != nil {
		return err
	}
	return decodeFull(fs, path, dec)
}

func checkStructure(fs afero.Fs, path string, dec decoder) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, err := dec.config(f)
	if err != nil {
		return fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

func decodeFull(fs afero.Fs, path string, dec decoder) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("reopening image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := dec.decode(f); err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	return nil
}
