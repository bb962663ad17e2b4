package review

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Pending  []seedEntry  `yaml:"pending"`
	Reviewed []seedRecord `yaml:"reviewed"`
}

type seedEntry struct {
	ID           int      `yaml:"id"`
	Title        string   `yaml:"title"`
	Type         string   `yaml:"type"`
	Uploader     string   `yaml:"uploader"`
	Institution  string   `yaml:"institution"`
	Email        string   `yaml:"email"`
	UploadDate   string   `yaml:"upload_date"`
	FileCount    int      `yaml:"file_count"`
	FileSize     string   `yaml:"file_size"`
	Thumbnail    string   `yaml:"thumbnail"`
	Status       string   `yaml:"status"`
	Priority     string   `yaml:"priority"`
	Description  string   `yaml:"description"`
	Tags         []string `yaml:"tags"`
	Checks       Checks   `yaml:"compliance_checks"`
	QualityScore int      `yaml:"quality_score"`
}

type seedRecord struct {
	ID          int    `yaml:"id"`
	Title       string `yaml:"title"`
	Uploader    string `yaml:"uploader"`
	Institution string `yaml:"institution"`
	ReviewDate  string `yaml:"review_date"`
	Status      string `yaml:"status"`
	Reviewer    string `yaml:"reviewer"`
	Reason      string `yaml:"reason"`
}

// DefaultQueue builds a queue from the embedded seed.
func DefaultQueue() (*Queue, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile builds a queue from a YAML file.
func LoadSeedFile(path string) (*Queue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read review seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a review seed document.
func ParseSeed(data []byte) (*Queue, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode review seed: %w", err)
	}

	v := structValidator()

	pending := make([]Entry, 0, len(doc.Pending))
	for i, s := range doc.Pending {
		date, err := time.Parse(catalog.DateLayout, s.UploadDate)
		if err != nil {
			return nil, fmt.Errorf("pending entry %d: invalid date %q", i, s.UploadDate)
		}
		typ, err := catalog.ParseDataType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("pending entry %d: %w", i, err)
		}
		e := Entry{
			ID:           s.ID,
			Title:        s.Title,
			Type:         typ,
			Uploader:     s.Uploader,
			Institution:  s.Institution,
			Email:        s.Email,
			UploadDate:   date,
			FileCount:    s.FileCount,
			FileSize:     s.FileSize,
			Thumbnail:    s.Thumbnail,
			Status:       Status(s.Status),
			Priority:     Priority(s.Priority),
			Description:  s.Description,
			Tags:         s.Tags,
			Checks:       s.Checks,
			QualityScore: s.QualityScore,
		}
		if err := v.Struct(e); err != nil {
			return nil, fmt.Errorf("pending entry %d: %w", i, err)
		}
		pending = append(pending, e)
	}

	history := make([]Record, 0, len(doc.Reviewed))
	for i, s := range doc.Reviewed {
		date, err := time.Parse(catalog.DateLayout, s.ReviewDate)
		if err != nil {
			return nil, fmt.Errorf("reviewed entry %d: invalid date %q", i, s.ReviewDate)
		}
		st := Status(s.Status)
		if st != StatusApproved && st != StatusRejected {
			return nil, fmt.Errorf("reviewed entry %d: invalid enum: status %q", i, s.Status)
		}
		history = append(history, Record{
			ID:          s.ID,
			Title:       s.Title,
			Uploader:    s.Uploader,
			Institution: s.Institution,
			ReviewDate:  date,
			Status:      st,
			Reviewer:    s.Reviewer,
			Reason:      s.Reason,
		})
	}

	return NewQueue(pending, history)
}
