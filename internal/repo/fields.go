package repo

import (
	"fmt"

	"github.com/shaiso/Valora/internal/domain"
)

// columns отображает семантические имена полей на колонки таблиц.
//
// Исторически данные жили в таблице, перенесённой из электронной
// таблицы, отсюда расхождение имён. Отображение — деталь адаптера:
// ни движок, ни Locator колонок не видят.
var columns = map[domain.Field]string{
	domain.FieldValue:             "appraised_value",
	domain.FieldDescription:       "user_description",
	domain.FieldAIDescription:     "ai_description",
	domain.FieldMergedDescription: "merged_description",
	domain.FieldShortTitle:        "short_title",
	domain.FieldLongTitle:         "long_title",
	domain.FieldRecordType:        "record_type",
	domain.FieldImageURL:          "primary_image_url",
	domain.FieldContentURL:        "content_item_url",
	domain.FieldDocumentLink:      "document_link",
	domain.FieldSourceLink:        "document_source_link",
	domain.FieldCustomerEmail:     "customer_email",
	domain.FieldCustomerName:      "customer_name",
	domain.FieldDeliveryReceipt:   "delivery_receipt",
	domain.FieldStatus:            "status",
	domain.FieldStatusDetail:      "status_detail",
	domain.FieldStatusUpdatedAt:   "status_updated_at",
}

// columnFor возвращает колонку для семантического имени поля.
func columnFor(field domain.Field) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return col, nil
}

// tableFor возвращает таблицу раздела.
func tableFor(partition domain.Partition) (string, error) {
	switch partition {
	case domain.PartitionActive:
		return "appraisals", nil
	case domain.PartitionArchived:
		return "appraisals_archive", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPartition, partition)
	}
}
