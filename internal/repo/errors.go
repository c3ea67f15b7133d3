package repo

import "errors"

// Общие ошибки хранилища.
var (
	// ErrNotFound — запись не найдена в указанном разделе.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownField — семантическое имя поля не отображается на колонку.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownPartition — неизвестный раздел хранилища.
	ErrUnknownPartition = errors.New("unknown partition")
)
