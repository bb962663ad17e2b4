package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

func TestCheck_UploadStep(t *testing.T) {
	d := NewDraft()
	if CanAdvance(StepUploadFiles, d) {
		t.Error("empty draft should not advance from step 1")
	}

	d = d.AddFiles(File{Name: "a.png", Size: 1})
	if !CanAdvance(StepUploadFiles, d) {
		t.Error("draft with a file and no upload should advance")
	}

	d.Uploading = true
	err := Check(StepUploadFiles, d)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Check() error = %v, want *ValidationError", err)
	}
	if ve.Fields[0].Field != "upload" {
		t.Errorf("blocking field = %q, want upload", ve.Fields[0].Field)
	}
}

func TestCheck_MetadataRequiresEveryField(t *testing.T) {
	if !CanAdvance(StepMetadata, Draft{Metadata: fullMetadata()}) {
		t.Fatal("complete metadata should advance without files")
	}

	blank := map[string]func(*Metadata){
		"title":       func(m *Metadata) { m.Title = "" },
		"description": func(m *Metadata) { m.Description = "" },
		"data_type":   func(m *Metadata) { m.DataType = "" },
		"file_format": func(m *Metadata) { m.FileFormat = "" },
		"author":      func(m *Metadata) { m.Author = "" },
		"institution": func(m *Metadata) { m.Institution = "" },
		"email":       func(m *Metadata) { m.Email = "" },
	}

	for field, fn := range blank {
		t.Run(field, func(t *testing.T) {
			m := fullMetadata()
			fn(&m)
			err := Check(StepMetadata, Draft{Metadata: m})
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Check() error = %v, want *ValidationError", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != field {
				t.Errorf("Fields = %v, want only %s", ve.Fields, field)
			}
		})
	}
}

func TestCheck_MetadataRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(*Metadata)
		fields []string
	}{
		{"unknown type", func(m *Metadata) { m.DataType = "Banana" }, []string{"data_type"}},
		{"unknown format", func(m *Metadata) { m.FileFormat = "JPEG" }, []string{"file_format"}},
		{"both", func(m *Metadata) { m.DataType, m.FileFormat = "Banana", "JPEG" }, []string{"data_type", "file_format"}},
		{"wrong case", func(m *Metadata) { m.DataType = "topography" }, []string{"data_type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fullMetadata()
			tt.edit(&m)
			d := Draft{Metadata: m}
			if CanAdvance(StepMetadata, d) {
				t.Fatal("CanAdvance() = true, want false")
			}
			var ve *ValidationError
			if !errors.As(Check(StepMetadata, d), &ve) {
				t.Fatal("Check() did not return *ValidationError")
			}
			if len(ve.Fields) != len(tt.fields) {
				t.Fatalf("Fields = %v, want %v", ve.Fields, tt.fields)
			}
			for i, f := range ve.Fields {
				if f.Field != tt.fields[i] || f.Message != msgInvalidEnum {
					t.Errorf("Fields[%d] = %+v, want %s invalid enum", i, f, tt.fields[i])
				}
			}
			if !strings.Contains(ve.Error(), "invalid enum") || strings.Contains(ve.Error(), "required field") {
				t.Errorf("Error() = %q", ve.Error())
			}
		})
	}
}

func TestDraft_WithMetadataCanonicalizesEnums(t *testing.T) {
	m := fullMetadata()
	m.DataType, m.FileFormat = "tomography", "dicom"
	d := NewDraft().WithMetadata(m)
	if d.Metadata.DataType != catalog.TypeTomography || d.Metadata.FileFormat != catalog.FormatDICOM {
		t.Errorf("Metadata = %q/%q, want Tomography/DICOM", d.Metadata.DataType, d.Metadata.FileFormat)
	}
	if !CanAdvance(StepMetadata, d) {
		t.Error("canonicalized metadata should advance")
	}
}

func TestCheck_MetadataOptionalFields(t *testing.T) {
	m := fullMetadata()
	m.Device = ""
	m.SampleCount = ""
	m.FundingSource = ""
	m.EthicsApprovalNumber = ""
	if !CanAdvance(StepMetadata, Draft{Metadata: m}) {
		t.Error("optional fields should not block step 2")
	}
}

func TestCheck_ComplianceFlags(t *testing.T) {
	if !CanAdvance(StepCompliance, Draft{Compliance: fullCompliance()}) {
		t.Fatal("all four flags should advance")
	}

	flip := []func(*Compliance){
		func(c *Compliance) { c.Deidentified = false },
		func(c *Compliance) { c.EthicsApproved = false },
		func(c *Compliance) { c.DataRights = false },
		func(c *Compliance) { c.LicenseAgreement = false },
	}
	for i, fn := range flip {
		c := fullCompliance()
		fn(&c)
		if CanAdvance(StepCompliance, Draft{Compliance: c}) {
			t.Errorf("flag %d false: CanAdvance = true, want false", i)
		}
	}
}

func TestCheck_UnknownStep(t *testing.T) {
	if err := Check(Step(7), NewDraft()); err == nil {
		t.Error("Check(7) should fail")
	}
}

func TestAdvance(t *testing.T) {
	d := NewDraft()

	got, ok := Advance(d)
	if ok || got.Step != StepUploadFiles {
		t.Errorf("blocked Advance = (%v, %v), want (1, false)", got.Step, ok)
	}

	d = d.AddFiles(File{Name: "a.png", Size: 1})
	got, ok = Advance(d)
	if !ok || got.Step != StepMetadata {
		t.Errorf("Advance = (%v, %v), want (2, true)", got.Step, ok)
	}
	if d.Step != StepUploadFiles {
		t.Error("Advance mutated its input")
	}

	d.Step = StepReview
	if _, ok := Advance(d); ok {
		t.Error("Advance from review should be a no-op")
	}
}

func TestBack(t *testing.T) {
	d := NewDraft()
	if got := Back(d); got.Step != StepUploadFiles {
		t.Errorf("Back from step 1 = %v", got.Step)
	}
	d.Step = StepCompliance
	if got := Back(d); got.Step != StepMetadata {
		t.Errorf("Back from step 3 = %v, want 2", got.Step)
	}
}

func TestReady(t *testing.T) {
	d := NewDraft().AddFiles(File{Name: "a.png", Size: 1}).WithMetadata(fullMetadata())
	err := Ready(d)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Step != StepCompliance {
		t.Fatalf("Ready() error = %v, want compliance failure", err)
	}

	if err := Ready(d.WithCompliance(fullCompliance())); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}
