// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to place order", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Op возвращает slog.Attr с именем операции, в которой пишется лог.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// Masked возвращает slog.Attr, в котором видны только последние четыре символа значения.
// Используется для номеров карт и идентификаторов, которые нельзя писать в лог целиком.
func Masked(key, value string) slog.Attr {
	if len(value) <= 4 {
		return slog.String(key, "****")
	}
	return slog.String(key, "****"+value[len(value)-4:])
}
