package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/matzehuels/flatmine/pkg/errors"
)

// Extract unpacks the archive at file into dest. kind is an archive-type
// name as returned by [manifest.DetectArchiveType]; strip leading path
// components are removed from every entry.
//
// Only regular files and directories are written. Links and device
// entries are skipped, and entries that would land outside dest are an
// error.
//
// [manifest.DetectArchiveType]: github.com/matzehuels/flatmine/pkg/manifest.DetectArchiveType
func Extract(file, kind, dest string, strip int) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dest)
	}
	if kind == "zip" {
		return extractZip(file, dest, strip)
	}

	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open archive")
	}
	defer f.Close()

	r, err := decompress(kind, f)
	if err != nil {
		return err
	}
	defer r.Close()
	return extractTar(r, dest, strip)
}

func decompress(kind string, r io.Reader) (io.ReadCloser, error) {
	switch kind {
	case "tar":
		return io.NopCloser(r), nil
	case "tar-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "gzip")
		}
		return gz, nil
	case "tar-bzip2":
		return io.NopCloser(bzip2.NewReader(r)), nil
	case "tar-xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "xz")
		}
		return io.NopCloser(xr), nil
	case "tar-lzma":
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "lzma")
		}
		return io.NopCloser(lr), nil
	case "tar-zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "zstd")
		}
		return zr.IOReadCloser(), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "archive type %s is not supported", kind)
}

func extractTar(r io.Reader, dest string, strip int) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read tar entry")
		}

		name, ok := stripComponents(hdr.Name, strip)
		if !ok {
			continue
		}
		target, err := entryPath(dest, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", name)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		}
	}
}

func extractZip(file, dest string, strip int) error {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "open zip")
	}
	defer zr.Close()

	for _, zf := range zr.File {
		name, ok := stripComponents(zf.Name, strip)
		if !ok {
			continue
		}
		target, err := entryPath(dest, name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", name)
			}
			continue
		}
		if !zf.Mode().IsRegular() {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "open zip entry %s", zf.Name)
		}
		err = writeFile(target, rc, zf.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// stripComponents drops the first n path components of name. It reports
// false when nothing is left.
func stripComponents(name string, n int) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	parts := strings.Split(strings.Trim(name, "/"), "/")
	if len(parts) <= n {
		return "", false
	}
	rest := strings.Join(parts[n:], "/")
	return rest, rest != ""
}

func entryPath(dest, name string) (string, error) {
	if err := errors.ValidatePath(name); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "unsafe archive entry %q", name)
	}
	return filepath.Join(dest, filepath.FromSlash(name)), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create parent of %s", target)
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", target)
	}
	_, err = io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "extract %s", target)
	}
	return nil
}
