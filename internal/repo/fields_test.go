package repo

import (
	"errors"
	"testing"

	"github.com/shaiso/Valora/internal/domain"
)

func TestColumnFor(t *testing.T) {
	tests := []struct {
		field domain.Field
		want  string
	}{
		{domain.FieldValue, "appraised_value"},
		{domain.FieldDescription, "user_description"},
		{domain.FieldImageURL, "primary_image_url"},
		{domain.FieldContentURL, "content_item_url"},
		{domain.FieldStatus, "status"},
	}

	for _, tt := range tests {
		got, err := columnFor(tt.field)
		if err != nil {
			t.Errorf("columnFor(%s) unexpected error: %v", tt.field, err)
			continue
		}
		if got != tt.want {
			t.Errorf("columnFor(%s) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestColumnFor_UnknownField(t *testing.T) {
	_, err := columnFor("no_such_field")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("error = %v, want ErrUnknownField", err)
	}
}

func TestTableFor(t *testing.T) {
	if table, err := tableFor(domain.PartitionActive); err != nil || table != "appraisals" {
		t.Errorf("tableFor(active) = %q, %v", table, err)
	}
	if table, err := tableFor(domain.PartitionArchived); err != nil || table != "appraisals_archive" {
		t.Errorf("tableFor(archived) = %q, %v", table, err)
	}
	if _, err := tableFor("limbo"); !errors.Is(err, ErrUnknownPartition) {
		t.Errorf("tableFor(limbo) error = %v, want ErrUnknownPartition", err)
	}
}

// Каждое семантическое имя поля должно иметь адрес хранения.
func TestColumns_CoverAllFields(t *testing.T) {
	fields := []domain.Field{
		domain.FieldValue, domain.FieldDescription, domain.FieldAIDescription,
		domain.FieldMergedDescription, domain.FieldShortTitle, domain.FieldLongTitle,
		domain.FieldRecordType, domain.FieldImageURL, domain.FieldContentURL,
		domain.FieldDocumentLink, domain.FieldSourceLink, domain.FieldCustomerEmail,
		domain.FieldCustomerName, domain.FieldDeliveryReceipt, domain.FieldStatus,
		domain.FieldStatusDetail, domain.FieldStatusUpdatedAt,
	}

	for _, f := range fields {
		if _, err := columnFor(f); err != nil {
			t.Errorf("field %s has no column mapping", f)
		}
	}
}
