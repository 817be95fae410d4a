package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnadrag/invoice-prorata/internal/entity"
)

type FileResult struct {
	Path string
	Err  string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// ReadDirectory walks root, decodes every .json extraction payload, and
// returns the line items plus per-file results and aggregate stats. A bad
// file never stops the walk.
func (d *Decoder) ReadDirectory(root string) ([]*entity.InvoiceLineItem, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var (
		items   []*entity.InvoiceLineItem
		results []FileResult
		stats   DirStats
	)

	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if de.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		stats.Matched++

		raw, err := os.ReadFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		item, err := d.Decode(raw)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		items = append(items, item)
		results = append(results, FileResult{Path: path})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return items, results, stats, fmt.Errorf("walk: %w", err)
	}
	return items, results, stats, nil
}
