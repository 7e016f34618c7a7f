// Package kvstore оборачивает локальное хранилище устройства: строковые ключи,
// строковые значения, JSON поверх них и «тихие» ошибки записи.
package kvstore

import "errors"

// ErrQuotaExceeded возвращается бэкендом, когда значение не помещается в квоту
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// Backend – синхронное локальное хранилище строк без транзакций
type Backend interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
