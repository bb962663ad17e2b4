package workflow

import (
	"errors"
	"testing"
)

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	if d.Step != StepUploadFiles {
		t.Errorf("Step = %v, want %v", d.Step, StepUploadFiles)
	}
	if len(d.Files) != 0 || len(d.Tags) != 0 {
		t.Errorf("new draft has files %v tags %v", d.Files, d.Tags)
	}
	if d.UploadProgress != 0 || d.Uploading {
		t.Errorf("new draft progress = %d uploading = %v", d.UploadProgress, d.Uploading)
	}
	if d.Compliance.Complete() {
		t.Error("new draft compliance should be incomplete")
	}
}

func TestDraft_AddFilesDoesNotMutate(t *testing.T) {
	d := NewDraft().AddFiles(File{Name: "a.png", Size: 10})
	d2 := d.AddFiles(File{Name: "b.csv", Size: 20})

	if len(d.Files) != 1 {
		t.Errorf("original draft has %d files, want 1", len(d.Files))
	}
	if len(d2.Files) != 2 || d2.Files[1].Name != "b.csv" {
		t.Errorf("Files = %v", d2.Files)
	}
	if got := d2.TotalSize(); got != 30 {
		t.Errorf("TotalSize() = %d, want 30", got)
	}
}

func TestDraft_RemoveFile(t *testing.T) {
	d := NewDraft().AddFiles(
		File{Name: "a.png", Size: 1},
		File{Name: "b.png", Size: 2},
		File{Name: "c.png", Size: 3},
	)

	got, err := d.RemoveFile(1)
	if err != nil {
		t.Fatalf("RemoveFile(1) error = %v", err)
	}
	if len(got.Files) != 2 || got.Files[0].Name != "a.png" || got.Files[1].Name != "c.png" {
		t.Errorf("Files = %v", got.Files)
	}
	if len(d.Files) != 3 {
		t.Errorf("original draft changed: %v", d.Files)
	}

	for _, idx := range []int{-1, 3, 10} {
		if _, err := d.RemoveFile(idx); !errors.Is(err, ErrFileIndex) {
			t.Errorf("RemoveFile(%d) error = %v, want ErrFileIndex", idx, err)
		}
	}
}

func TestDraft_AddTag(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{"appends in order", []string{"OCT", "Screening"}, []string{"OCT", "Screening"}},
		{"trims", []string{"  Pediatric  "}, []string{"Pediatric"}},
		{"ignores empty", []string{"", "   "}, []string{}},
		{"ignores duplicate", []string{"OCT", "OCT", " OCT "}, []string{"OCT"}},
		{"case sensitive", []string{"oct", "OCT"}, []string{"oct", "OCT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			for _, tag := range tt.tags {
				d = d.AddTag(tag)
			}
			if len(d.Tags) != len(tt.want) {
				t.Fatalf("Tags = %v, want %v", d.Tags, tt.want)
			}
			for i := range tt.want {
				if d.Tags[i] != tt.want[i] {
					t.Errorf("Tags = %v, want %v", d.Tags, tt.want)
				}
			}
		})
	}
}

func TestDraft_RemoveTag(t *testing.T) {
	d := NewDraft().AddTag("a").AddTag("b").AddTag("c")
	d = d.RemoveTag("b").RemoveTag("missing")
	if len(d.Tags) != 2 || d.Tags[0] != "a" || d.Tags[1] != "c" {
		t.Errorf("Tags = %v, want [a c]", d.Tags)
	}
}

func TestLimits_Check(t *testing.T) {
	l := DefaultLimits()

	tests := []struct {
		name string
		file File
		want error
	}{
		{"png", File{Name: "map.png", Size: 1024}, nil},
		{"upper case extension", File{Name: "SCAN.DCM", Size: 1024}, nil},
		{"tif", File{Name: "scan.tif", Size: 1024}, nil},
		{"csv at limit", File{Name: "data.csv", Size: l.MaxFileSize}, nil},
		{"too large", File{Name: "data.csv", Size: l.MaxFileSize + 1}, ErrFileTooLarge},
		{"unsupported", File{Name: "notes.pdf", Size: 10}, ErrUnsupportedFile},
		{"no extension", File{Name: "README", Size: 10}, ErrUnsupportedFile},
		{"zero size", File{Name: "map.png", Size: 0}, ErrEmptyFile},
		{"no name", File{Name: " ", Size: 10}, ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Check(tt.file)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Check() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Check() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStep_String(t *testing.T) {
	if got := StepReview.String(); got != "Review & Submit" {
		t.Errorf("StepReview.String() = %q", got)
	}
	if got := Step(9).String(); got != "Step(9)" {
		t.Errorf("Step(9).String() = %q", got)
	}
}
