package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/shaiso/Valora/internal/domain"
)

// ErrValidation — входящее сообщение неполно или некорректно.
// Не повторяется: немедленный ack + запись в DLQ.
var ErrValidation = errors.New("message validation failed")

// taskMessageSchema — контракт входящего задания.
// recordId, value и description обязательны; recordType и step —
// опциональные enum'ы.
const taskMessageSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["recordId", "value", "description"],
	"properties": {
		"recordId":    {"type": "string", "minLength": 1},
		"value":       {"type": "number", "minimum": 0},
		"description": {"type": "string", "minLength": 1},
		"recordType": {
			"type": "string",
			"enum": ["art", "antique", "jewelry", "collectible", "other"]
		},
		"step": {
			"type": "string",
			"enum": [
				"set_value", "merge_descriptions", "update_external_content",
				"generate_visualization", "generate_document", "complete",
				"build_report"
			]
		}
	}
}`

var taskSchema = jsonschema.MustCompileString("task_message.json", taskMessageSchema)

// parseMessage разбирает и валидирует тело входящего сообщения.
func parseMessage(body []byte) (*domain.TaskMessage, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := taskSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var msg domain.TaskMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return &msg, nil
}
