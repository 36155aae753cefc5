package utils

import (
	"fmt"
	"log"

	"github.com/skip2/go-qrcode"
)

// GeneratePaymentQRCode генерирует QR-код PNG с крипто-адресом для оплаты заказа.
// Страница оплаты показывает его рядом с адресом и суммой.
func GeneratePaymentQRCode(payAddress string) ([]byte, error) {
	if payAddress == "" {
		log.Println("GeneratePaymentQRCode: адрес оплаты не предоставлен.")
		return nil, fmt.Errorf("адрес оплаты отсутствует")
	}

	// qrcode.Medium - уровень коррекции ошибок, 256 - размер QR-кода в пикселях.
	qrBytes, err := qrcode.Encode(payAddress, qrcode.Medium, 256)
	if err != nil {
		log.Printf("GeneratePaymentQRCode: ошибка кодирования QR-кода для адреса '%s': %v", payAddress, err)
		return nil, err
	}
	return qrBytes, nil
}
