package ipn

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifySignature проверяет подлинность IPN-уведомления от NOWPayments.
//
// HMAC-SHA512 считается по ТОЧНЫМ байтам тела запроса, как они пришли по сети.
// Пересериализация распарсенной структуры (сортировка ключей, пробелы,
// форматирование чисел) меняет байты и ломает подпись, поэтому тело нужно
// сохранить до парсинга и передать сюда без изменений.
//
// Отсутствие секрета или подписи, не-hex подпись и несовпадение длины —
// всё это отказ в проверке (fail closed), а не отдельная ошибка.
func VerifySignature(rawBody []byte, sigHeader, secret string) bool {
	if sigHeader == "" || secret == "" {
		return false
	}

	supplied, err := hex.DecodeString(sigHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	// hmac.Equal — сравнение за постоянное время.
	return hmac.Equal(expected, supplied)
}
