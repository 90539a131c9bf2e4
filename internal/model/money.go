package model

import "fmt"

// Rupees formats a paise amount as a rupee string, e.g. 285650 → "₹2856.50".
func Rupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}
