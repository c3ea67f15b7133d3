package domain

// Field — семантическое имя поля записи оценки.
//
// Движок и Locator адресуют данные только семантическими именами.
// Отображение имени на конкретный адрес хранения (колонку таблицы)
// — забота адаптера хранилища, см. internal/repo.
type Field string

const (
	// FieldValue — оценочная стоимость (строковое представление числа).
	FieldValue Field = "value"

	// FieldDescription — пользовательское описание предмета.
	FieldDescription Field = "description"

	// FieldAIDescription — описание, сгенерированное vision-сервисом.
	FieldAIDescription Field = "ai_description"

	// FieldMergedDescription — итоговое слитое описание.
	FieldMergedDescription Field = "merged_description"

	// FieldShortTitle — короткий заголовок из слияния.
	FieldShortTitle Field = "short_title"

	// FieldLongTitle — длинный заголовок из слияния.
	FieldLongTitle Field = "long_title"

	// FieldRecordType — категория предмета.
	FieldRecordType Field = "record_type"

	// FieldImageURL — ссылка на основное изображение предмета.
	FieldImageURL Field = "image_url"

	// FieldContentURL — ссылка на связанный элемент CMS.
	FieldContentURL Field = "content_url"

	// FieldDocumentLink — ссылка на отрендеренный документ.
	FieldDocumentLink Field = "document_link"

	// FieldSourceLink — ссылка на исходник документа.
	FieldSourceLink Field = "source_link"

	// FieldCustomerEmail — email клиента для уведомления.
	FieldCustomerEmail Field = "customer_email"

	// FieldCustomerName — имя клиента.
	FieldCustomerName Field = "customer_name"

	// FieldDeliveryReceipt — подтверждение доставки уведомления.
	FieldDeliveryReceipt Field = "delivery_receipt"

	// FieldStatus — текущий статус обработки (RecordStatus).
	FieldStatus Field = "status"

	// FieldStatusDetail — человекочитаемая деталь статуса.
	FieldStatusDetail Field = "status_detail"

	// FieldStatusUpdatedAt — время последнего изменения статуса.
	FieldStatusUpdatedAt Field = "status_updated_at"
)
