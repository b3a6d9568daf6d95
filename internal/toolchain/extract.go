package toolchain

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/pkg/errors"
	"github.com/xi2/xz" // For reading .xz compressed data

	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// ExtractArchive unpacks src into dest, choosing the format from the file
// name, and returns the number of regular files written.
func ExtractArchive(src, dest string) (int, error) {
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] %s is a zip archive\n", src)
		return extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] %s is a 7z archive\n", src)
		return extract7z(src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("[DEBUG] %s is a tar archive\n", src)
		return extractTarArchive(src, dest)
	default:
		return 0, errors.Errorf("unsupported archive format: %s", src)
	}
}

// targetPath joins an archive entry name onto dest and rejects entries that
// would land outside of it.
func targetPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("archive entry %q escapes %s", name, dest)
	}
	return target, nil
}

// writeEntry creates target (and its parents) from r.
func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode.Perm() == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// extractTarArchive handles tar and compressed tar variants.
func extractTarArchive(src, dest string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return 0, err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		target, err := targetPath(dest, hdr.Name)
		if err != nil {
			return count, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// extractZip extracts a .zip archive.
func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		target, err := targetPath(dest, f.Name)
		if err != nil {
			return count, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return count, err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// extract7z handles .7z extraction using the sevenzip library.
func extract7z(src, dest string) (int, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open 7z archive")
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		target, err := targetPath(dest, f.Name)
		if err != nil {
			return count, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return count, err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
