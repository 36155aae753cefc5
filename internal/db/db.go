// Файл: internal/db/db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var DB *sql.DB // Глобальная переменная для хранения подключения к БД

// Сигнальные ошибки хранилища. Проверяются через errors.Is.
var (
	// ErrOrderNotFound — заказ с таким order_id отсутствует.
	ErrOrderNotFound = errors.New("заказ не найден")
	// ErrDuplicateCommission — комиссия по этому заказу уже существует
	// (нарушение UNIQUE(order_ref)). Для вызывающего кода это не ошибка:
	// параллельная доставка IPN уже создала запись.
	ErrDuplicateCommission = errors.New("комиссия по заказу уже существует")
)

// InitDB инициализирует соединение с базой данных и выполняет миграции.
func InitDB() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL не установлена")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetMaxIdleConns(20)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("ошибка проверки соединения с базой данных: %v", err)
	}

	log.Println("Успешное подключение к базе данных.")

	// UNIQUE(order_ref) на commissions — финальный арбитр идемпотентности:
	// две параллельные доставки "finished" не создадут две комиссии.
	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            order_id TEXT UNIQUE NOT NULL,
            plan TEXT,
            coupon_code TEXT,
            currency TEXT NOT NULL DEFAULT 'usd',
            amount_expected FLOAT NOT NULL DEFAULT 0,
            amount_paid FLOAT NOT NULL DEFAULT 0,
            pay_currency TEXT,
            pay_address TEXT,
            pay_amount_crypto FLOAT,
            nowpayments_payment_id TEXT,
            processor_status TEXT NOT NULL DEFAULT 'created',
            payment_state TEXT NOT NULL DEFAULT 'pending',
            influencer_id TEXT,
            influencer_wallet TEXT,
            commission_percent FLOAT,
            commission_generated BOOLEAN NOT NULL DEFAULT FALSE,
            confirmation_sent BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS commissions (
            id SERIAL PRIMARY KEY,
            influencer_id TEXT,
            order_ref TEXT UNIQUE NOT NULL REFERENCES orders(order_id),
            wallet TEXT NOT NULL,
            amount_usd FLOAT NOT NULL,
            status TEXT NOT NULL DEFAULT 'due',
            payout_id TEXT,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS coupons (
            code TEXT PRIMARY KEY,
            influencer_id TEXT,
            influencer_wallet TEXT NOT NULL,
            percent FLOAT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE
        );`

	if _, err = DB.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %v", err)
	}

	log.Println("Миграции успешно выполнены.")
	return nil
}

// CloseDB закрывает соединение с базой данных.
func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с базой данных: %v", err)
		} else {
			log.Println("Соединение с базой данных закрыто.")
		}
	}
}
