// Package refgen insan tarafından okunabilir işlem referansları üretir
// (ör: DEP-OUT-20250901-3F2A9C). Tarih + rastgele ek, fişlerde ve
// telefonda kolayca söylenebilsin diye kısa tutulur.
package refgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PrefixDepositOut = "DEP-OUT"
	PrefixDepositIn  = "DEP-IN"
	PrefixReturn     = "RET"
	PrefixSale       = "SAT"
)

// New - "<prefix>-<YYYYMMDD>-<6 haneli hex>" formatında referans üret.
// Benzersizlik veritabanındaki unique index ile garanti edilir; çakışma
// olursa kayıt hata verir ve işlem tekrarlanır.
func New(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
