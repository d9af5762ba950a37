package domain

import "errors"

// Ошибки, которые могут вернуться из адаптеров и use case-ов.
var (
	// ErrDuplicateLatest - нарушение уникальности (url, is_latest): попытка
	// вставить вторую "актуальную" версию без предварительного retire.
	ErrDuplicateLatest = errors.New("duplicate latest row for url")

	// ErrAddressNotFound - геокодер ответил, но адрес не нашелся.
	ErrAddressNotFound = errors.New("address not found")

	// ErrGeocodingFailed - все попытки геокодирования исчерпаны.
	// Для вызывающего это значит "все гео-поля отсутствуют", а не фатальная ошибка.
	ErrGeocodingFailed = errors.New("geocoding failed")
)
