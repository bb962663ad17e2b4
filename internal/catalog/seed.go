package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// ErrDuplicateID is returned when two seed records share an id.
var ErrDuplicateID = errors.New("duplicate dataset id")

type seedFile struct {
	Datasets []seedRecord `yaml:"datasets"`
}

type seedRecord struct {
	ID             int      `yaml:"id"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Type           string   `yaml:"type"`
	Format         string   `yaml:"format"`
	Date           string   `yaml:"date"`
	Device         string   `yaml:"device"`
	Tags           []string `yaml:"tags"`
	Thumbnail      string   `yaml:"thumbnail"`
	Downloads      int      `yaml:"downloads"`
	License        string   `yaml:"license"`
	Views          int      `yaml:"views"`
	Resolution     string   `yaml:"resolution"`
	FileSize       string   `yaml:"file_size"`
	SampleCount    int      `yaml:"sample_count"`
	Institution    string   `yaml:"institution"`
	Author         string   `yaml:"author"`
	DOI            string   `yaml:"doi"`
	Citation       string   `yaml:"citation"`
	Methodology    string   `yaml:"methodology"`
	EthicsApproval string   `yaml:"ethics_approval"`
	FundingSource  string   `yaml:"funding_source"`
}

// DefaultSeed parses the embedded catalog.
func DefaultSeed() ([]DatasetRecord, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile parses a YAML catalog from path.
func LoadSeedFile(path string) ([]DatasetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a YAML catalog document.
func ParseSeed(data []byte) ([]DatasetRecord, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[int]bool, len(doc.Datasets))
	records := make([]DatasetRecord, 0, len(doc.Datasets))
	for i, s := range doc.Datasets {
		if seen[s.ID] {
			return nil, fmt.Errorf("seed entry %d: %w: %d", i, ErrDuplicateID, s.ID)
		}
		seen[s.ID] = true

		r, err := s.record()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (id %d): %w", i, s.ID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s seedRecord) record() (DatasetRecord, error) {
	t, err := ParseDataType(s.Type)
	if err != nil {
		return DatasetRecord{}, err
	}
	if t == "" {
		return DatasetRecord{}, fmt.Errorf("required field: type")
	}
	f, err := ParseFileFormat(s.Format)
	if err != nil {
		return DatasetRecord{}, err
	}
	if f == "" {
		return DatasetRecord{}, fmt.Errorf("required field: format")
	}
	date, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return DatasetRecord{}, fmt.Errorf("invalid date %q: %w", s.Date, err)
	}
	if s.Downloads < 0 {
		return DatasetRecord{}, fmt.Errorf("invalid number: downloads %d", s.Downloads)
	}

	return DatasetRecord{
		ID:             s.ID,
		Title:          s.Title,
		Description:    s.Description,
		Type:           t,
		Format:         f,
		Device:         s.Device,
		Tags:           s.Tags,
		Downloads:      s.Downloads,
		Date:           date,
		License:        s.License,
		Thumbnail:      s.Thumbnail,
		Views:          s.Views,
		Resolution:     s.Resolution,
		FileSize:       s.FileSize,
		SampleCount:    s.SampleCount,
		Institution:    s.Institution,
		Author:         s.Author,
		DOI:            s.DOI,
		Citation:       s.Citation,
		Methodology:    s.Methodology,
		EthicsApproval: s.EthicsApproval,
		FundingSource:  s.FundingSource,
	}, nil
}
