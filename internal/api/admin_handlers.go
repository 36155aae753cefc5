package api

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2" // Для генерации Excel / For Excel generation

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
)

// RunAffiliatePayoutsHandler запускает прогон выплат партнёрам.
// Вызывается планировщиком (еженедельно) с заголовком X-Cron-Secret.
func (deps *ApiDependencies) RunAffiliatePayoutsHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := deps.Payouts.Run(r.Context())
	if err != nil {
		log.Printf("RunAffiliatePayoutsHandler: ошибка прогона выплат: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Ошибка прогона выплат")
		return
	}

	if summary.TotalWallets == 0 {
		writeJSONSuccess(w, "Комиссий к выплате нет", summary)
		return
	}
	writeJSONSuccess(w, "Прогон выплат завершён", summary)
}

// ExportCommissionsHandler генерирует и отдаёт Excel-отчёт по комиссиям.
func (deps *ApiDependencies) ExportCommissionsHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := db.GetCommissionsForExcel()
	if err != nil {
		log.Printf("ExportCommissionsHandler: ошибка получения данных комиссий из БД: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Ошибка при получении данных для Excel отчета по комиссиям")
		return
	}
	defer rows.Close()

	f := excelize.NewFile()
	sheetName := "Комиссии"
	index, _ := f.NewSheet(sheetName)
	f.DeleteSheet("Sheet1") // Удаляем стандартный лист / Delete default sheet
	f.SetActiveSheet(index)

	headers := []string{"ID", "Заказ", "План", "Кошелёк", "Сумма USD", "Статус", "ID выплаты", "Создана"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for rows.Next() {
		var id int64
		var orderRef, wallet, status string
		var plan, payoutID sql.NullString
		var amountUSD float64
		var createdAt time.Time

		// Порядок сканирования должен соответствовать SELECT в db.GetCommissionsForExcel()
		if errScan := rows.Scan(&id, &orderRef, &plan, &wallet, &amountUSD, &status, &payoutID, &createdAt); errScan != nil {
			log.Printf("ExportCommissionsHandler: ошибка сканирования строки комиссии: %v", errScan)
			continue
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), id)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), orderRef)
		if plan.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), plan.String)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), wallet)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), amountUSD)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), status)
		if payoutID.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), payoutID.String)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowIndex), createdAt.Format("02.01.2006 15:04"))
		rowIndex++
	}
	if errRows := rows.Err(); errRows != nil {
		log.Printf("ExportCommissionsHandler: ошибка после итерации по строкам: %v", errRows)
		writeJSONError(w, http.StatusInternalServerError, "Ошибка чтения данных комиссий")
		return
	}

	fileName := fmt.Sprintf("commissions_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := f.Write(w); err != nil {
		log.Printf("ExportCommissionsHandler: ошибка записи Excel-файла в ответ: %v", err)
	}
}
