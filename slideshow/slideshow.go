// Package slideshow manages the rotating image set shown between the
// dashboard sections. Images live as plain files in a slides directory;
// display order is the numeric prefix of the file name, and reordering
// renames files since the filesystem has no atomic reorder.
package slideshow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"adboard/models"

	"github.com/labstack/gommon/bytes"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

var leadingNumber = regexp.MustCompile(`\d+`)

// Manager lists, deletes and reorders slideshow images inside one directory
type Manager struct {
	dir string
}

func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slides dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// List returns the current images ordered by the first number in their
// file name, with sizes formatted for the admin listing
func (m *Manager) List() ([]models.SlideshowImage, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read slides dir: %w", err)
	}

	images := []models.SlideshowImage{}
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.WithFields(log.Fields{
				"file":  entry.Name(),
				"error": err,
			}).Warn("Could not stat slideshow image")
			continue
		}

		images = append(images, models.SlideshowImage{
			Name:         entry.Name(),
			Path:         "/uploads/" + entry.Name(),
			Size:         info.Size(),
			SizeLabel:    bytes.Format(info.Size()),
			LastModified: info.ModTime().UnixMilli(),
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return orderOf(images[i].Name) < orderOf(images[j].Name)
	})
	return images, nil
}

// Save writes a new image into the slides directory
func (m *Manager) Save(name string, data []byte) (models.SlideshowImage, error) {
	name = filepath.Base(name)
	if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
		return models.SlideshowImage{}, fmt.Errorf("unsupported image type: %s", name)
	}

	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.SlideshowImage{}, fmt.Errorf("save image: %w", err)
	}

	log.WithFields(log.Fields{
		"file": name,
		"size": bytes.Format(int64(len(data))),
	}).Info("Saved slideshow image")

	return models.SlideshowImage{
		Name:      name,
		Path:      "/uploads/" + name,
		Size:      int64(len(data)),
		SizeLabel: bytes.Format(int64(len(data))),
	}, nil
}

func (m *Manager) Delete(name string) error {
	path := filepath.Join(m.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image %s not found", name)
		}
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// Reorder renames the named images to a zero-padded numeric prefix in the
// given order. Names must match the current directory contents exactly.
func (m *Manager) Reorder(names []string) error {
	current, err := m.List()
	if err != nil {
		return err
	}

	existing := lo.SliceToMap(current, func(img models.SlideshowImage) (string, bool) {
		return img.Name, true
	})
	for _, name := range names {
		if !existing[filepath.Base(name)] {
			return fmt.Errorf("image %s not found", name)
		}
	}
	if len(names) != len(current) {
		return fmt.Errorf("reorder must name all %d images, got %d", len(current), len(names))
	}

	for i, name := range names {
		name = filepath.Base(name)
		stripped := strings.TrimLeft(name, "0123456789-")
		if stripped == "" {
			stripped = name
		}
		target := fmt.Sprintf("%03d-%s", i+1, stripped)
		if target == name {
			continue
		}
		if err := os.Rename(filepath.Join(m.dir, name), filepath.Join(m.dir, target)); err != nil {
			return fmt.Errorf("rename %s: %w", name, err)
		}
	}

	log.WithFields(log.Fields{"images": len(names)}).Info("Reordered slideshow")
	return nil
}

// orderOf extracts the first number in a file name, 0 when absent
func orderOf(name string) int {
	match := leadingNumber.FindString(name)
	if match == "" {
		return 0
	}
	n, _ := strconv.Atoi(match)
	return n
}
