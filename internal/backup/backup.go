// Package backup archives the Galleria snapshot cache and configuration as
// tar.gz and restores them.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/HerbHall/galleria/internal/version"
)

// ManifestName is the archive entry describing the backup.
const ManifestName = "manifest.yaml"

// maxEntrySize bounds a single restored file.
const maxEntrySize = 1 << 30

// ErrExists is returned by Restore when a target file exists and overwrite
// was not requested.
var ErrExists = errors.New("restore target exists")

// Manifest describes the contents of a backup archive.
type Manifest struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	Database  string    `yaml:"database"`
	Config    string    `yaml:"config,omitempty"`
}

// Backup creates a tar.gz archive containing the SQLite cache and an
// optional config file. The session file is never archived. A WAL
// checkpoint runs first so the copied database is self-contained.
func Backup(ctx context.Context, dbPath, configPath, outputPath string) (*Manifest, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database file not found: %w", err)
	}
	if err := checkpointWAL(ctx, dbPath); err != nil {
		return nil, fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	m := &Manifest{
		Version:   version.Short(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Database:  filepath.Base(dbPath),
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			m.Config = filepath.Base(configPath)
		}
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	if err := write(outFile, m, dbPath, configPath); err != nil {
		outFile.Close()
		os.Remove(outputPath)
		return nil, err
	}
	if err := outFile.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return m, nil
}

func write(w io.Writer, m *Manifest, dbPath, configPath string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	manifest, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	hdr := &tar.Header{Name: ManifestName, Mode: 0o600, Size: int64(len(manifest)), ModTime: m.CreatedAt}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := addFileToTar(tw, dbPath, m.Database); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}
	if m.Config != "" {
		if err := addFileToTar(tw, configPath, m.Config); err != nil {
			return fmt.Errorf("adding config to archive: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar: %w", err)
	}
	return gw.Close()
}

// checkpointWAL runs a TRUNCATE checkpoint to flush the WAL into the main
// database file.
func checkpointWAL(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts archivePath into destDir and returns its manifest. Only
// the files named by the manifest are written. Existing files are replaced
// only when overwrite is set.
func Restore(ctx context.Context, archivePath, destDir string, overwrite bool) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()
	tr := tar.NewReader(gr)

	hdr, err := tr.Next()
	if err != nil || hdr.Name != ManifestName {
		return nil, fmt.Errorf("archive has no %s", ManifestName)
	}
	var m Manifest
	if err := yaml.NewDecoder(io.LimitReader(tr, 1<<20)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	wanted := map[string]bool{}
	for _, name := range []string{m.Database, m.Config} {
		if name == "" {
			continue
		}
		if name != filepath.Base(name) || name == "." || name == ".." {
			return nil, fmt.Errorf("manifest names unsafe path %q", name)
		}
		wanted[name] = true
	}
	if !wanted[m.Database] {
		return nil, fmt.Errorf("manifest names no database")
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", destDir, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !wanted[hdr.Name] {
			continue
		}
		if err := extract(tr, filepath.Join(destDir, hdr.Name), hdr.Size, overwrite); err != nil {
			return nil, err
		}
		delete(wanted, hdr.Name)
	}
	if len(wanted) > 0 {
		return nil, fmt.Errorf("archive is missing %d file(s) named by its manifest", len(wanted))
	}
	return &m, nil
}

// extract writes one entry through a temporary file renamed into place.
func extract(r io.Reader, target string, size int64, overwrite bool) error {
	if size > maxEntrySize {
		return fmt.Errorf("%s exceeds %d bytes", filepath.Base(target), maxEntrySize)
	}
	if _, err := os.Stat(target); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, target)
	}
	tmp := target + ".restore"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := io.CopyN(out, r, size); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("extracting %s: %w", filepath.Base(target), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(target + suffix)
	}
	return os.Rename(tmp, target)
}
